// Package dataset loads ML-ready forecast sequences into a scoring.ForecastBatch.
//
// The input is the JSON array written by the preparation pipeline: each
// record holds a normalised input sequence (sequenceEntree), the next-hour
// target (cible) and, optionally, the model's prediction. Records without a
// prediction are filled by a moving-average baseline so a dataset can be
// scored before any model has run.
package dataset
