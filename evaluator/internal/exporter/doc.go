// Package exporter renders a scoring.ScoreBreakdown as Prometheus metrics.
//
// Families builds client_model metric families (all gauges, one sample per
// component where a component label applies). Write encodes them in the
// text exposition format; WriteFile does so atomically so a node_exporter
// textfile collector never reads a half-written file.
//
// Exposed families:
//
//	forecast_score_total
//	forecast_score_component{component}
//	forecast_score_weight{component}
//	forecast_score_weights_normalized
//	forecast_score_peak_threshold
//	forecast_score_peak_samples
//	forecast_score_direction_mismatch_rate
//	forecast_score_jump_penalty
//	forecast_score_cyclical_degraded
//
// SummaryFamilies adds the accuracy summary from package report:
//
//	forecast_score_contribution_ratio{component}
//	forecast_mae
//	forecast_rmse
//	forecast_accuracy_pct
//	forecast_peak_accuracy_pct
package exporter
