// Package mask keeps label and binary mask volumes resident as 3D textures.
//
// A Manager holds one texture per source image. Entries are re-uploaded
// when the image is modified, when the cell/point mode or the requested
// extent changes, or after the graphics context was recreated. The total
// size of all resident masks is bounded by a byte budget and the number of
// entries by a limit; the least recently used mask (by frame number) goes
// first.
//
// Refusals are ordinary errors. The frame driver logs them and draws the
// volume without a mask.
package mask
