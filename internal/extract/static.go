package extract

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// Static is an offline Extractor for development and demos. It derives a
// deterministic profile from the document hash and never calls out.
type Static struct {
	MaxPages int
}

var (
	staticNames     = []string{"Priya Sharma", "Rahul Verma", "Ananya Iyer", "Arjun Nair", "Meera Patel", "Karthik Rao"}
	staticCities    = []string{"Mumbai", "Bengaluru", "Pune", "Chennai", "Hyderabad", "Delhi"}
	staticReligions = []string{"Hindu", "Jain", "Sikh", "Christian"}
	staticEducation = []string{"B.Tech Computer Science", "MBA Finance", "MBBS", "M.Sc Physics", "B.Com"}
)

func (s Static) Extract(ctx context.Context, doc Document) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, Classify(ctx, err)
	}
	if _, err := Inspect(doc, s.MaxPages); err != nil {
		return Result{}, err
	}
	sum := sha256.Sum256(doc.Content)
	pick := func(i int, from []string) *string { return entity.Ptr(from[int(sum[i])%len(from)]) }

	gender := constants.GenderFemale
	if sum[0]%2 == 1 {
		gender = constants.GenderMale
	}
	fields := entity.Fields{
		Name:        pick(1, staticNames),
		Age:         entity.Ptr(22 + int(sum[2])%14),
		Gender:      &gender,
		Education:   pick(3, staticEducation),
		Religion:    pick(4, staticReligions),
		CurrentCity: pick(5, staticCities),
		Country:     entity.Ptr("India"),
		Marital:     entity.Ptr(constants.MaritalSingle),
	}
	stem := strings.TrimSuffix(filepath.Base(doc.Filename), filepath.Ext(doc.Filename))
	return Result{
		Fields:     fields,
		Confidence: Coverage(fields),
		RawText:    fmt.Sprintf("static extraction of %s (%x)", stem, sum[:4]),
		Model:      "static",
	}, nil
}
