package matching

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/common"
	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
	"github.com/joseph-ayodele/biodata-tracker/internal/repository"
)

type GraphTestSuite struct {
	suite.Suite
	ctx  context.Context
	repo *repository.MemoryProfileRepository
	svc  *Service
}

func (s *GraphTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = repository.NewMemoryProfileRepository()
	s.svc = NewService(NewEngine(DefaultConfig()), s.repo, nil, time.Second, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *GraphTestSuite) add(status constants.OCRStatus, name string, f entity.Fields) *entity.Profile {
	f.Name = entity.Ptr(name)
	p := &entity.Profile{OCRStatus: status, Fields: f}
	s.Require().NoError(s.repo.Create(s.ctx, p))
	return p
}

func (s *GraphTestSuite) TestSimilarByAttributesScoresSharedValues() {
	ref := s.add(constants.OCRStatusApproved, "Asha", entity.Fields{
		Religion: entity.Ptr("Hindu"), Caste: entity.Ptr("Brahmin"), CurrentCity: entity.Ptr("Pune"),
		Education: entity.Ptr("B.Tech"), Occupation: entity.Ptr("Engineer"),
	})
	all := s.add(constants.OCRStatusApproved, "Ravi", entity.Fields{
		Religion: entity.Ptr("HINDU"), Caste: entity.Ptr("Brāhmin"), CurrentCity: entity.Ptr(" pune "),
		Education: entity.Ptr("b.tech"), Occupation: entity.Ptr("engineer"),
	})
	religionOnly := s.add(constants.OCRStatusApproved, "Kiran", entity.Fields{Religion: entity.Ptr("Hindu"), CurrentCity: entity.Ptr("Delhi")})
	s.add(constants.OCRStatusApproved, "Sam", entity.Fields{Religion: entity.Ptr("Sikh")})
	s.add(constants.OCRStatusPending, "Pending", entity.Fields{Religion: entity.Ptr("Hindu")})

	out, err := s.svc.SimilarByAttributes(s.ctx, ref.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(out, 2)

	s.Equal(all.ID, out[0].Profile.ID)
	s.InDelta(1.0, out[0].Score, 1e-9)
	s.Equal(map[string]string{
		"religion": "hindu", "caste": "brahmin", "location": "pune",
		"education": "b.tech", "occupation": "engineer",
	}, out[0].Shared)

	s.Equal(religionOnly.ID, out[1].Profile.ID)
	s.InDelta(0.25, out[1].Score, 1e-9)
	s.Equal(map[string]string{"religion": "hindu"}, out[1].Shared)
}

func (s *GraphTestSuite) TestSimilarByAttributesLimitAndErrors() {
	ref := s.add(constants.OCRStatusApproved, "Ref", entity.Fields{Religion: entity.Ptr("Jain")})
	for i := 0; i < MaxSimilarLimit+5; i++ {
		s.add(constants.OCRStatusApproved, "Peer", entity.Fields{Religion: entity.Ptr("Jain")})
	}

	out, err := s.svc.SimilarByAttributes(s.ctx, ref.ID, 3)
	s.Require().NoError(err)
	s.Len(out, 3)

	out, err = s.svc.SimilarByAttributes(s.ctx, ref.ID, 1000)
	s.Require().NoError(err)
	s.Len(out, MaxSimilarLimit)

	_, err = s.svc.SimilarByAttributes(s.ctx, "missing", 5)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *GraphTestSuite) TestGraphWholeView() {
	a := s.add(constants.OCRStatusApproved, "A", entity.Fields{Religion: entity.Ptr("Hindu"), State: entity.Ptr("Goa"), Education: entity.Ptr("MBA")})
	b := s.add(constants.OCRStatusApproved, "", entity.Fields{Religion: entity.Ptr("hindu")})
	s.add(constants.OCRStatusApproved, "C", entity.Fields{Caste: entity.Ptr("Nair")})

	g, err := s.svc.Graph(s.ctx, "", 0)
	s.Require().NoError(err)

	nodes := map[string]entity.GraphNode{}
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	s.Len(nodes, len(g.Nodes))
	s.Equal("Person", nodes[a.ID].Type)
	s.Equal("goa", nodes[a.ID].Location)
	s.Equal("Unknown", nodes[b.ID].Label)
	s.Equal(entity.GraphNode{ID: "religion_hindu", Label: "Hindu", Type: "Religion"}, nodes["religion_hindu"])
	s.Contains(nodes, "location_goa")
	s.Contains(nodes, "caste_nair")
	s.NotContains(nodes, "education_mba")

	var similar []entity.GraphEdge
	for _, e := range g.Edges {
		if e.Type == EdgeSimilarTo {
			similar = append(similar, e)
		}
	}
	s.Require().Len(similar, 1)
	s.ElementsMatch([]string{a.ID, b.ID}, []string{similar[0].Source, similar[0].Target})
	s.Contains(g.Edges, entity.GraphEdge{Source: a.ID, Target: "religion_hindu", Type: "HAS_RELIGION"})
}

func (s *GraphTestSuite) TestGraphCenteredView() {
	center := s.add(constants.OCRStatusNeedsReview, "Center", entity.Fields{Caste: entity.Ptr("Iyer"), Occupation: entity.Ptr("Doctor")})
	peer := s.add(constants.OCRStatusApproved, "Peer", entity.Fields{Caste: entity.Ptr("iyer")})
	s.add(constants.OCRStatusApproved, "Stranger", entity.Fields{Caste: entity.Ptr("Reddy")})

	g, err := s.svc.Graph(s.ctx, center.ID, 0)
	s.Require().NoError(err)

	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	s.ElementsMatch([]string{center.ID, peer.ID, "caste_iyer", "occupation_doctor"}, ids)
	s.Contains(g.Edges, entity.GraphEdge{Source: center.ID, Target: peer.ID, Type: EdgeSimilarTo})
	s.Contains(g.Edges, entity.GraphEdge{Source: center.ID, Target: "occupation_doctor", Type: "WORKS_AS"})

	_, err = s.svc.Graph(s.ctx, "missing", 0)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *GraphTestSuite) TestGraphStats() {
	s.add(constants.OCRStatusApproved, "A", entity.Fields{Religion: entity.Ptr("Hindu"), CurrentCity: entity.Ptr("Pune")})
	s.add(constants.OCRStatusApproved, "B", entity.Fields{Religion: entity.Ptr("Hindu"), Caste: entity.Ptr("Maratha")})
	s.add(constants.OCRStatusApproved, "C", entity.Fields{State: entity.Ptr("Pune")})
	s.add(constants.OCRStatusRejected, "D", entity.Fields{Religion: entity.Ptr("Parsi")})

	st, err := s.svc.GraphStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(entity.GraphStats{Persons: 3, Similarities: 2, Religions: 1, Castes: 1, Locations: 1}, st)
}

func TestGraphTestSuite(t *testing.T) {
	suite.Run(t, new(GraphTestSuite))
}

func TestAttrValueTruncates(t *testing.T) {
	long := "Bachelor of Engineering in Electronics and Communication"
	assert.Len(t, []rune(attrValue(long)), attrValueMaxRunes)
	assert.Equal(t, "", attrValue("   "))
}
