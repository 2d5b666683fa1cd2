// Package movie concatenates trial videos into one stimulus movie per Order
// value. Every trial video is followed by the configured between-trial blank;
// transition rows insert a blank of their own color and length.
package movie
