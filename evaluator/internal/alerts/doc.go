// Package alerts evaluates threshold rules against score breakdowns.
//
// A rule is a "field operator value" expression such as
// "peak_penalty > 0.05". The engine tracks which rules are firing per
// evaluation label and reports transitions: a rule fires once when its
// condition becomes true and resolves once when it stops holding.
package alerts
