// Package clipmaker renders one stimulus clip per protocol row: one or two
// objects (stills or videos) placed on a solid canvas, with an audio track
// or generated silence that sets the clip length.
//
// The protocol's shape picks the layout. A Test_trial_ID column means a test
// protocol with Left and Right objects; Training_trial_ID means a training
// protocol with a single centered Object. Object cells are file name
// prefixes resolved inside the video directory and must match one file.
package clipmaker
