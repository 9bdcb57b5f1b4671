// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package ico encodes ICO containers.
//
// Each image is stored as a 32-bit BGRA bitmap with an AND mask, the
// most widely supported encoding for favicon.ico files.
package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
)

const (
	headerSize = 6  // ICONDIR
	entrySize  = 16 // ICONDIRENTRY
	dibSize    = 40 // BITMAPINFOHEADER
)

// Encode writes images to w as a single ICO container, in the given
// order. Images must be at most 256px per axis.
func Encode(w io.Writer, images []image.Image) error {
	if len(images) == 0 {
		return errors.New("ico: no images to encode")
	}

	var dir, data bytes.Buffer

	// ICONDIR: reserved, type (1 = icon), count.
	binary.Write(&dir, binary.LittleEndian, [3]uint16{0, 1, uint16(len(images))})

	offset := headerSize + entrySize*len(images)
	for _, img := range images {
		dx, dy := img.Bounds().Dx(), img.Bounds().Dy()
		if dx > 256 || dy > 256 {
			return fmt.Errorf("ico: image %dx%d exceeds 256px", dx, dy)
		}

		bmp := encodeBMP(img)

		// Dimension bytes store 0 for 256.
		dir.WriteByte(uint8(dx % 256))
		dir.WriteByte(uint8(dy % 256))
		dir.WriteByte(0)                                       // palette size
		dir.WriteByte(0)                                       // reserved
		binary.Write(&dir, binary.LittleEndian, uint16(1))     // planes
		binary.Write(&dir, binary.LittleEndian, uint16(32))    // bits per pixel
		binary.Write(&dir, binary.LittleEndian, uint32(len(bmp)))
		binary.Write(&dir, binary.LittleEndian, uint32(offset))

		data.Write(bmp)
		offset += len(bmp)
	}

	if _, err := w.Write(dir.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(data.Bytes())
	return err
}

// encodeBMP encodes img as a BITMAPINFOHEADER-prefixed 32-bit BGRA
// bitmap followed by the AND mask. Rows go bottom-up; the header height
// covers both the color data and the mask.
func encodeBMP(img image.Image) []byte {
	b := img.Bounds()
	dx, dy := b.Dx(), b.Dy()

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(dibSize))
	binary.Write(&buf, binary.LittleEndian, int32(dx))
	binary.Write(&buf, binary.LittleEndian, int32(dy*2))
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	binary.Write(&buf, binary.LittleEndian, uint32(0))  // no compression
	binary.Write(&buf, binary.LittleEndian, uint32(dx*dy*4))
	binary.Write(&buf, binary.LittleEndian, [4]uint32{0, 0, 0, 0}) // resolution, palette

	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			buf.Write([]byte{uint8(bl >> 8), uint8(g >> 8), uint8(r >> 8), uint8(a >> 8)})
		}
	}

	// AND mask: one bit per pixel, rows padded to 32 bits. All zero,
	// since transparency comes from the alpha channel.
	maskStride := (dx + 31) / 32 * 4
	buf.Write(make([]byte, maskStride*dy))

	return buf.Bytes()
}
