package renderer

import "time"

// TileStats counts the work done on one tile
type TileStats struct {
	Pixels       int   // Pixels written
	Samples      int   // Camera rays traced
	Faults       int   // Pixels replaced by ErrorColor
	FirstFault   error // Cause of the first fault, if any
	FaultedPixel [2]int
}

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Pixels in the image
	PixelsWritten  int           // Pixels holding a final color
	TotalSamples   int           // Total number of camera rays
	AverageSamples float64       // Average samples per written pixel
	TilesTotal     int           // Tiles in the grid
	TilesDone      int           // Tiles rendered completely
	FaultedPixels  int           // Pixels replaced by ErrorColor
	Duration       time.Duration // Wall time of the pass
}

// add merges the counters of a finished or abandoned tile
func (s *RenderStats) add(t TileStats) {
	s.PixelsWritten += t.Pixels
	s.TotalSamples += t.Samples
	s.FaultedPixels += t.Faults
}

// finalize derives averages once every tile has reported
func (s *RenderStats) finalize() {
	if s.PixelsWritten > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.PixelsWritten)
	}
}

// Progress is the progress contract reported while a render runs
type Progress struct {
	TilesTotal int `json:"tilesTotal"`
	TilesDone  int `json:"tilesDone"`
}

// Fraction returns completion in [0, 1]
func (p Progress) Fraction() float64 {
	if p.TilesTotal == 0 {
		return 0
	}
	return float64(p.TilesDone) / float64(p.TilesTotal)
}
