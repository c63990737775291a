// Package fingerprint computes a compact perceptual hash of a rendered
// frame's tone-mapped preview, so two renders of the same scene can be
// compared without diffing full images. It is a DCT-based hash in the
// ThumbHash family, adapted down to the two concrete image formats a
// render preview ever produces (image.RGBA straight off the renderer,
// image.NRGBA after a PNG round-trip) plus a generic fallback; the
// YCbCr/JPEG and grayscale fast paths a general-purpose image pipeline
// would need are dropped as dead weight here.
package fingerprint

import (
	"image"
	"math"
)

const maxDim = 100

// Compute returns a fingerprint of img: 11-40 bytes, deterministic for
// identical input.
func Compute(img image.Image) []byte {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil
	}

	dstW, dstH := thumbDims(srcW, srcH)
	rgba := make([]float32, dstW*dstH*4)

	if srcW <= dstW && srcH <= dstH {
		extractPixels(img, bounds, dstW, dstH, rgba)
	} else {
		downscale(img, bounds, srcW, srcH, dstW, dstH, rgba)
	}

	return assembleHash(dstW, dstH, rgba)
}

func thumbDims(srcW, srcH int) (int, int) {
	if srcW <= maxDim && srcH <= maxDim {
		return srcW, srcH
	}
	if srcW >= srcH {
		return maxDim, max1(srcH * maxDim / srcW)
	}
	return max1(srcW * maxDim / srcH), maxDim
}

func downscale(img image.Image, bounds image.Rectangle, srcW, srcH, dstW, dstH int, rgba []float32) {
	switch src := img.(type) {
	case *image.NRGBA:
		dsNRGBA(src, bounds, srcW, srcH, dstW, dstH, rgba)
	case *image.RGBA:
		dsRGBA(src, bounds, srcW, srcH, dstW, dstH, rgba)
	default:
		dsGeneric(img, bounds, srcW, srcH, dstW, dstH, rgba)
	}
}

func dsNRGBA(src *image.NRGBA, bounds image.Rectangle, srcW, srcH, dstW, dstH int, rgba []float32) {
	pix := src.Pix
	stride := src.Stride
	bY := bounds.Min.Y - src.Rect.Min.Y
	bX4 := (bounds.Min.X - src.Rect.Min.X) * 4

	for dy := 0; dy < dstH; dy++ {
		sy0, sy1 := srcSpan(dy, dstH, srcH)
		for dx := 0; dx < dstW; dx++ {
			sx0, sx1 := srcSpan(dx, dstW, srcW)

			var rS, gS, bS, aS uint32
			for sy := sy0; sy < sy1; sy++ {
				off := (bY+sy)*stride + bX4 + sx0*4
				for sx := sx0; sx < sx1; sx++ {
					rS += uint32(pix[off])
					gS += uint32(pix[off+1])
					bS += uint32(pix[off+2])
					aS += uint32(pix[off+3])
					off += 4
				}
			}

			inv := float32(1) / (float32((sy1-sy0)*(sx1-sx0)) * 255)
			di := (dy*dstW + dx) * 4
			rgba[di] = float32(rS) * inv
			rgba[di+1] = float32(gS) * inv
			rgba[di+2] = float32(bS) * inv
			rgba[di+3] = float32(aS) * inv
		}
	}
}

func dsRGBA(src *image.RGBA, bounds image.Rectangle, srcW, srcH, dstW, dstH int, rgba []float32) {
	pix := src.Pix
	stride := src.Stride
	bY := bounds.Min.Y - src.Rect.Min.Y
	bX4 := (bounds.Min.X - src.Rect.Min.X) * 4

	for dy := 0; dy < dstH; dy++ {
		sy0, sy1 := srcSpan(dy, dstH, srcH)
		for dx := 0; dx < dstW; dx++ {
			sx0, sx1 := srcSpan(dx, dstW, srcW)

			var rS, gS, bS, aS uint32
			for sy := sy0; sy < sy1; sy++ {
				off := (bY+sy)*stride + bX4 + sx0*4
				for sx := sx0; sx < sx1; sx++ {
					rS += uint32(pix[off])
					gS += uint32(pix[off+1])
					bS += uint32(pix[off+2])
					aS += uint32(pix[off+3])
					off += 4
				}
			}

			di := (dy*dstW + dx) * 4
			if aS > 0 {
				aF := float32(aS)
				rgba[di] = float32(rS) / aF
				rgba[di+1] = float32(gS) / aF
				rgba[di+2] = float32(bS) / aF
			}
			rgba[di+3] = float32(aS) / (float32((sy1-sy0)*(sx1-sx0)) * 255)
		}
	}
}

func dsGeneric(img image.Image, bounds image.Rectangle, srcW, srcH, dstW, dstH int, rgba []float32) {
	minX, minY := bounds.Min.X, bounds.Min.Y
	for dy := 0; dy < dstH; dy++ {
		sy0, sy1 := srcSpan(dy, dstH, srcH)
		for dx := 0; dx < dstW; dx++ {
			sx0, sx1 := srcSpan(dx, dstW, srcW)

			var rS, gS, bS, aS float32
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					cr, cg, cb, ca := img.At(minX+sx, minY+sy).RGBA()
					af := float32(ca) / 65535
					if af > 0 {
						rS += float32(cr) / 65535 / af
						gS += float32(cg) / 65535 / af
						bS += float32(cb) / 65535 / af
					}
					aS += af
				}
			}

			inv := float32(1) / float32((sy1-sy0)*(sx1-sx0))
			di := (dy*dstW + dx) * 4
			rgba[di] = rS * inv
			rgba[di+1] = gS * inv
			rgba[di+2] = bS * inv
			rgba[di+3] = aS * inv
		}
	}
}

func extractPixels(img image.Image, bounds image.Rectangle, w, h int, rgba []float32) {
	switch src := img.(type) {
	case *image.NRGBA:
		pix := src.Pix
		stride := src.Stride
		bY := bounds.Min.Y - src.Rect.Min.Y
		bX4 := (bounds.Min.X - src.Rect.Min.X) * 4
		di := 0
		for y := 0; y < h; y++ {
			off := (bY+y)*stride + bX4
			for x := 0; x < w; x++ {
				rgba[di] = float32(pix[off]) / 255
				rgba[di+1] = float32(pix[off+1]) / 255
				rgba[di+2] = float32(pix[off+2]) / 255
				rgba[di+3] = float32(pix[off+3]) / 255
				off += 4
				di += 4
			}
		}
	case *image.RGBA:
		pix := src.Pix
		stride := src.Stride
		bY := bounds.Min.Y - src.Rect.Min.Y
		bX4 := (bounds.Min.X - src.Rect.Min.X) * 4
		di := 0
		for y := 0; y < h; y++ {
			off := (bY+y)*stride + bX4
			for x := 0; x < w; x++ {
				a := float32(pix[off+3])
				if a > 0 {
					rgba[di] = float32(pix[off]) / a
					rgba[di+1] = float32(pix[off+1]) / a
					rgba[di+2] = float32(pix[off+2]) / a
				}
				rgba[di+3] = a / 255
				off += 4
				di += 4
			}
		}
	default:
		di := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, a := img.At(x, y).RGBA()
				af := float32(a) / 65535
				if af > 0 {
					rgba[di] = float32(r) / 65535 / af
					rgba[di+1] = float32(g) / 65535 / af
					rgba[di+2] = float32(b) / 65535 / af
				}
				rgba[di+3] = af
				di += 4
			}
		}
	}
}

// assembleHash runs the DCT-based LPQA encoding and packs the result into
// the ThumbHash binary layout (header + 4-bit AC nibbles).
func assembleHash(w, h int, rgba []float32) []byte {
	count := w * h

	var avgR, avgG, avgB, avgA float32
	for i := 0; i < count; i++ {
		a := rgba[i*4+3]
		avgR += a * rgba[i*4]
		avgG += a * rgba[i*4+1]
		avgB += a * rgba[i*4+2]
		avgA += a
	}
	if avgA > 0 {
		avgR /= avgA
		avgG /= avgA
		avgB /= avgA
	}
	avgA /= float32(count)

	hasAlpha := avgA < 1
	lLimit := 7
	if hasAlpha {
		lLimit = 5
	}
	maxWH := imax(w, h)
	lx := max1(roundF(float32(lLimit*w) / float32(maxWH)))
	ly := max1(roundF(float32(lLimit*h) / float32(maxWH)))
	px := max1(roundF(float32(3*w) / float32(maxWH)))
	py := max1(roundF(float32(3*h) / float32(maxWH)))
	var ax, ay int
	if hasAlpha {
		ax = max1(roundF(float32(5*w) / float32(maxWH)))
		ay = max1(roundF(float32(5*h) / float32(maxWH)))
	}

	for i := 0; i < count; i++ {
		off := i * 4
		af := rgba[off+3]
		r := rgba[off] * af
		g := rgba[off+1] * af
		b := rgba[off+2] * af
		rgba[off] = (r + g + b) / 3
		rgba[off+1] = (r+g)/2 - b
		rgba[off+2] = r - g
	}

	maxNx := imax(lx, px)
	maxNy := imax(ly, py)
	if hasAlpha {
		maxNx = imax(maxNx, ax)
		maxNy = imax(maxNy, ay)
	}
	cosX := make([]float32, maxNx*w)
	for cx := 0; cx < maxNx; cx++ {
		s := math.Pi * float64(cx) / float64(w)
		base := cx * w
		for x := 0; x < w; x++ {
			cosX[base+x] = float32(math.Cos(s * (float64(x) + 0.5)))
		}
	}
	cosY := make([]float32, maxNy*h)
	for cy := 0; cy < maxNy; cy++ {
		s := math.Pi * float64(cy) / float64(h)
		base := cy * h
		for y := 0; y < h; y++ {
			cosY[base+y] = float32(math.Cos(s * (float64(y) + 0.5)))
		}
	}

	lN := lx*ly - 1
	pN := px*py - 1
	qN := pN
	aN := 0
	if hasAlpha {
		aN = ax*ay - 1
	}
	ac := make([]float32, lN+pN+qN+aN)
	lAC := ac[0:lN]
	pAC := ac[lN : lN+pN]
	qAC := ac[lN+pN : lN+pN+qN]
	var aAC []float32
	if hasAlpha {
		aAC = ac[lN+pN+qN : lN+pN+qN+aN]
	}

	lScale, lDC := encodeChan(rgba, 0, 4, w, h, lx, ly, cosX, cosY, lAC)
	pScale, pDC := encodeChan(rgba, 1, 4, w, h, px, py, cosX, cosY, pAC)
	qScale, qDC := encodeChan(rgba, 2, 4, w, h, px, py, cosX, cosY, qAC)
	var aScale, aDC float32
	if hasAlpha {
		aScale, aDC = encodeChan(rgba, 3, 4, w, h, ax, ay, cosX, cosY, aAC)
	}

	isLandscape := w > h
	header := uint32(math.Round(float64(lDC)*63)) |
		uint32(math.Round(float64(pDC)*31+31))<<6 |
		uint32(math.Round(float64(qDC)*31+31))<<12 |
		uint32(math.Round(float64(lScale)*31))<<18 |
		boolU32(hasAlpha)<<23
	if isLandscape {
		header |= uint32(ly) << 24
	} else {
		header |= uint32(lx) << 24
	}
	header |= boolU32(isLandscape) << 28

	header2 := uint16(math.Round(float64(pScale)*63)) |
		uint16(math.Round(float64(qScale)*63))<<6

	var alphaHdr uint16
	if hasAlpha {
		alphaHdr = uint16(math.Round(float64(aDC)*15)) |
			uint16(math.Round(float64(aScale)*15))<<4
	}

	totalAC := lN + pN + qN + aN
	hashLen := 6
	if hasAlpha {
		hashLen = 8
	}
	hashLen += (totalAC + 1) / 2

	hash := make([]byte, hashLen)
	hash[0] = byte(header)
	hash[1] = byte(header >> 8)
	hash[2] = byte(header >> 16)
	hash[3] = byte(header >> 24)
	hash[4] = byte(header2)
	hash[5] = byte(header2 >> 8)

	acOff := 6
	if hasAlpha {
		hash[6] = byte(alphaHdr)
		hash[7] = byte(alphaHdr >> 8)
		acOff = 8
	}

	nib := 0
	packAC := func(ac []float32) {
		for _, c := range ac {
			v := clamp01f(c/2 + 0.5)
			b := byte(math.Round(float64(v) * 15))
			pos := acOff + nib/2
			if nib%2 == 0 {
				hash[pos] = b
			} else {
				hash[pos] |= b << 4
			}
			nib++
		}
	}
	packAC(lAC)
	packAC(pAC)
	packAC(qAC)
	if hasAlpha {
		packAC(aAC)
	}

	return hash
}

func encodeChan(data []float32, chanOff, stride, w, h, nx, ny int, cosX, cosY []float32, dst []float32) (float32, float32) {
	var dc, acMax float32
	idx := 0
	wh := float32(w * h)

	for cy := 0; cy < ny; cy++ {
		cyBase := cy * h
		for cx := 0; cx < nx; cx++ {
			var f float32
			cxBase := cx * w
			for y := 0; y < h; y++ {
				fy := cosY[cyBase+y]
				rowOff := y * w * stride
				for x := 0; x < w; x++ {
					f += data[rowOff+x*stride+chanOff] * cosX[cxBase+x] * fy
				}
			}
			f /= wh

			if cx == 0 && cy == 0 {
				dc = f
				continue
			}

			dst[idx] = f
			af := f
			if af < 0 {
				af = -af
			}
			if af > acMax {
				acMax = af
			}
			idx++
		}
	}

	if acMax > 0 {
		inv := float32(1) / acMax
		for i := range dst[:idx] {
			dst[i] *= inv
		}
	}

	return acMax, dc
}

func srcSpan(d, dstSize, srcSize int) (int, int) {
	s0 := d * srcSize / dstSize
	s1 := (d + 1) * srcSize / dstSize
	if s1 <= s0 {
		s1 = s0 + 1
	}
	if s1 > srcSize {
		s1 = srcSize
	}
	return s0, s1
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func clamp01f(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundF(v float32) int {
	return int(math.Round(float64(v)))
}
