// Package preprocess turns raw trial records into clean trials: it joins
// participant data, drops unusable records, explodes the mouse traces into
// samples, trims reaction-time outliers and keeps correct responses.
package preprocess
