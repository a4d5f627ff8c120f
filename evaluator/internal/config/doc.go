// Package config loads and watches the evaluator configuration file (config.yaml).
//
// Top-level types:
//   - Config: weights, thresholds, engine, dataset, noise, output, alerts, log_level
//   - DatasetConfig: path to the ML-ready JSON file plus use_history / use_temporal
//     switches controlling which optional batch arrays are attached
//   - NoiseConfig: enabled, seed, stddev for the explicit prediction perturbation
//   - OutputConfig: metrics_file, the Prometheus textfile written after each run
//   - AlertRule: name, condition ("peak_penalty > 0.05"), severity
//
// Load(path) reads the YAML file, applies defaults (recommended weights,
// P80 peak threshold, 0.2 jump threshold, engine parallel threshold 4096),
// then validates ranges and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. A reload that fails to parse or
// validate is logged and the previous config stays active.
package config
