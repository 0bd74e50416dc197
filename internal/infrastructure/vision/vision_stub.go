//go:build !gocv
// +build !gocv

package vision

import "image"

func grayscale(img image.Image) (*image.Gray, error) {
	_ = img
	return nil, errBuildTag
}

func matchTemplate(haystack, needle *image.Gray) (image.Point, float64, error) {
	_ = haystack
	_ = needle
	return image.Point{}, 0, errBuildTag
}

func loadGray(path string) (*image.Gray, error) {
	_ = path
	return nil, errBuildTag
}

func decode(data []byte) (image.Image, error) {
	_ = data
	return nil, errBuildTag
}

func otsu(g *image.Gray) (*image.Gray, error) {
	_ = g
	return nil, errBuildTag
}
