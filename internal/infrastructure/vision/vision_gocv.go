//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

func grayscale(img image.Image) (*image.Gray, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	return matToGray(gray, img.Bounds().Min)
}

func matchTemplate(haystack, needle *image.Gray) (image.Point, float64, error) {
	hm, err := grayToMat(haystack)
	if err != nil {
		return image.Point{}, 0, err
	}
	defer hm.Close()

	nm, err := grayToMat(needle)
	if err != nil {
		return image.Point{}, 0, err
	}
	defer nm.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(hm, nm, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return image.Point{}, 0, errors.New("empty response map")
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	score := float64(maxVal)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return image.Point{}, 0, fmt.Errorf("non-finite score %v", score)
	}
	return maxLoc.Add(haystack.Rect.Min), score, nil
}

func loadGray(path string) (*image.Gray, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}
	return matToGray(mat, image.Point{})
}

func decode(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}
	return mat.ToImage()
}

func otsu(g *image.Gray) (*image.Gray, error) {
	src, err := grayToMat(g)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Threshold(src, &dst, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	return matToGray(dst, g.Rect.Min)
}

// grayToMat копирует строки изображения в непрерывный буфер CV_8UC1.
// Подизображения имеют шаг больше ширины, поэтому Pix нельзя передать напрямую.
func grayToMat(g *image.Gray) (gocv.Mat, error) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(buf[y*w:(y+1)*w], g.Pix[off:off+w])
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, buf)
}

// matToGray превращает одноканальный Mat в image.Gray со сдвигом границ в origin
func matToGray(mat gocv.Mat, origin image.Point) (*image.Gray, error) {
	if mat.Empty() {
		return nil, errors.New("empty image")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected image type %T", img)
	}
	g.Rect = g.Rect.Add(origin)
	return g, nil
}
