// Package imaging converts image files to and from the raw buffers the
// session engine works on.
//
// The engine itself never touches image.Image: frames are width*height*4
// RGBA byte slices and masks are width*height byte slices, both row-major
// with (0,0) at the top-left corner. This package sits between the MCP tools
// and the engine and handles decoding, resizing to the session's working
// resolution, mask channel extraction and PNG output.
//
// # Frames
//
// Frames are decoded with the standard PNG, JPEG and GIF decoders, converted
// to non-premultiplied RGBA and resized with a Lanczos filter when their size
// differs from the session. The alpha channel of a frame is carried along but
// the compositor ignores it.
//
// # Masks
//
// Segmentation models emit masks in several shapes. A mask image with a
// non-opaque alpha channel is read from that channel; any other image is read
// as luminance, so white is foreground and black is background. Masks are
// frequently produced at a lower resolution than the frame and are resized
// with a linear filter, which does not overshoot at hard edges.
//
// # Output
//
// Rendered frames and mask previews are encoded as PNG, either returned as
// base64 for inline tool results or written to a file.
//
// # Thread Safety
//
// Every function is stateless and safe for concurrent use.
package imaging
