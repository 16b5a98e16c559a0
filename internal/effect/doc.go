// Package effect composites a video frame against a background treatment
// using the session's accumulated foreground mask as the opacity map.
//
// Frames are flat RGBA buffers with straight (non-premultiplied) alpha in
// the same layout as image.NRGBA.Pix with a stride of 4*width. The source
// alpha channel is ignored; video frames are treated as opaque.
//
// # Effects
//
//   - Remove: background becomes transparent, output alpha carries the mask
//   - Blur: background is a Gaussian blur of the frame (bild)
//   - ReplaceColor: background is a constant color
//   - Desaturate: background is a desaturated grayscale of the frame
//   - IsolateColor: background is a low-contrast grayscale and the
//     foreground gets a saturation boost (go-colorful HSV)
//
// For every effect except Remove each channel is
//
//	out = round(fg*alpha + bg*(1-alpha))
//
// and the output alpha is 255.
//
// # Alpha
//
// The per-pixel opacity is clamp(accum * (excluded ? ExclusionAlphaScale : 1), 0, 1),
// optionally feathered with a Gaussian blur. When the mask buffers do not
// match the frame dimensions the alpha is all zero, so the frame renders as
// pure background instead of failing.
package effect
