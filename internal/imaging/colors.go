package imaging

import (
	"fmt"
	"image"

	"github.com/EdlinOrg/prominentcolor"
)

// DominantColors clusters the image's pixels with k-means and returns the
// n most prominent colours as "#rrggbb" strings plus their [r,g,b]
// triples, ordered by cluster size.
func DominantColors(img image.Image, n int) ([]string, [][]int, error) {
	items, err := prominentcolor.KmeansWithAll(n, img,
		prominentcolor.ArgumentNoCropping, prominentcolor.DefaultSize, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("extract dominant colours: %w", err)
	}

	hex := make([]string, len(items))
	rgb := make([][]int, len(items))
	for i, item := range items {
		hex[i] = fmt.Sprintf("#%02x%02x%02x", item.Color.R, item.Color.G, item.Color.B)
		rgb[i] = []int{int(item.Color.R), int(item.Color.G), int(item.Color.B)}
	}
	return hex, rgb, nil
}
