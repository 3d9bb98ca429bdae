package layout

import "math"

// ChangeThreshold is the smallest per-axis difference, in layout units, that
// counts as a layout change. Smaller differences are sub-pixel rounding noise.
const ChangeThreshold = 0.1

// slack absorbs float error in differences such as 100.1-100, which is
// 0.09999999999999432 in binary.
const slack = 1e-9

// Changed reports whether pre and post differ by at least ChangeThreshold on
// either axis.
func Changed(pre, post Size) bool {
	return math.Abs(pre.Width-post.Width) >= ChangeThreshold-slack ||
		math.Abs(pre.Height-post.Height) >= ChangeThreshold-slack
}
