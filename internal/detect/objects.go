package detect

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/andresmejia3/sightline/internal/types"
)

// ssdRowLen is the width of one SSD detection row: [image_id, class_id, score, x0, y0, x1, y1].
const ssdRowLen = 7

// ParseSSD converts a flattened SSD output tensor into detections scaled to bounds.
// Coordinates in the tensor are normalized; rows with a zero score are padding and are skipped.
func ParseSSD(values []float32, bounds image.Rectangle, labels []string) []types.Detection {
	var out []types.Detection
	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	for i := 0; i+ssdRowLen <= len(values); i += ssdRowLen {
		row := values[i : i+ssdRowLen]
		score := row[2]
		if score <= 0 {
			continue
		}
		box := image.Rect(
			bounds.Min.X+int(row[3]*w), bounds.Min.Y+int(row[4]*h),
			bounds.Min.X+int(row[5]*w), bounds.Min.Y+int(row[6]*h),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}
		out = append(out, types.Detection{
			Label:      labelFor(labels, int(row[1])),
			Confidence: float64(score),
			Box:        box,
		})
	}
	return out
}

func labelFor(labels []string, id int) string {
	if id >= 0 && id < len(labels) && labels[id] != "" {
		return labels[id]
	}
	return fmt.Sprintf("class %d", id)
}

// LoadLabels reads one class name per line. Blank lines keep their index.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		labels = append(labels, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}
