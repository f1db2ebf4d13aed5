package extract

import (
	"math"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// Coverage scores an extraction by the share of schema fields it populated.
func Coverage(f entity.Fields) float64 {
	total := len(entity.FieldNames)
	if total == 0 {
		return 0
	}
	return math.Round(float64(f.Filled())/float64(total)*100) / 100
}
