package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mentorme/matching-api/internal/models"
	"github.com/mentorme/matching-api/pkg/config"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
	"github.com/mentorme/matching-api/pkg/vector"
)

// Component weights for the combined matching score. They must sum to
// 1.0 so the realized score stays in [0,1] while every sub-score is
// clamped to [0,1]; NewMatchingService enforces the invariant.
const (
	weightSubject  = 0.25
	weightGrade    = 0.10
	weightOverlap  = 0.15
	weightPrice    = 0.10
	weightLocation = 0.10
	weightTrust    = 0.15
	weightSemantic = 0.15
)

const (
	neutralScore         = 0.5
	defaultMatchingLimit = 10
	maxMatchingLimit     = 50
)

type matchingCandidateRepository interface {
	FindCandidates(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateTutor, error)
}

type descriptionEmbedder interface {
	EmbedDescription(ctx context.Context, text string) ([]float64, error)
}

// MatchingService ranks candidate tutors against a matching request
// using a fixed-weight multi-factor score.
type MatchingService struct {
	candidates   matchingCandidateRepository
	embedder     descriptionEmbedder
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      *MetricsService
	defaultLimit int
	maxLimit     int
}

// NewMatchingService constructs a MatchingService. It fails when the
// component weights do not sum to 1.
func NewMatchingService(candidates matchingCandidateRepository, embedder descriptionEmbedder, cfg config.MatchingConfig, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) (*MatchingService, error) {
	sum := weightSubject + weightGrade + weightOverlap + weightPrice + weightLocation + weightTrust + weightSemantic
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "matching component weights must sum to 1")
	}

	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = defaultMatchingLimit
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = maxMatchingLimit
	}

	return &MatchingService{
		candidates:   candidates,
		embedder:     embedder,
		validator:    validate,
		logger:       logger,
		metrics:      metrics,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// MatchTutors scores the coarse-filtered candidate pool against the
// request and returns a ranked, explained list. The request description
// is embedded at most once per call; if that embedding call fails the
// whole request fails rather than silently degrading to a neutral
// semantic score, keeping results reproducible.
func (s *MatchingService) MatchTutors(ctx context.Context, request models.MatchingRequest, limit int) ([]models.MatchedTutor, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matching request")
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	start := time.Now()

	pool, err := s.candidates.FindCandidates(ctx, models.CandidateFilter{
		SubjectID: request.SubjectID,
		City:      request.City,
		District:  request.District,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate tutors")
	}

	var requestEmbedding []float64
	if description := strings.TrimSpace(request.Description); description != "" {
		requestEmbedding, err = s.embedder.EmbedDescription(ctx, description)
		if err != nil {
			return nil, err
		}
	}

	results := make([]models.MatchedTutor, 0, len(pool))
	for _, candidate := range pool {
		results = append(results, scoreCandidate(candidate, request, requestEmbedding))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if s.metrics != nil {
		s.metrics.ObserveMatching(len(pool), time.Since(start))
	}
	s.logger.Sugar().Debugw("matched tutors",
		"subject_id", request.SubjectID,
		"pool_size", len(pool),
		"returned", len(results),
	)
	return results, nil
}

func scoreCandidate(candidate models.CandidateTutor, request models.MatchingRequest, requestEmbedding []float64) models.MatchedTutor {
	subjectMatch := 0.0
	for _, class := range candidate.Classes {
		if class.SubjectID == request.SubjectID {
			subjectMatch = 1
			break
		}
	}

	gradeMatch := 0.0
	if request.GradeLevel == "" {
		gradeMatch = 1
	} else {
		needle := strings.ToLower(request.GradeLevel)
		for _, class := range candidate.Classes {
			if class.TargetGrade != nil && strings.Contains(strings.ToLower(*class.TargetGrade), needle) {
				gradeMatch = 1
				break
			}
		}
	}

	overlapScore := computeTimeOverlapScore(candidate.Availabilities, request.DesiredSlots)
	priceScore := computePriceScore(request.BudgetPerHour, candidate.Classes)
	locationScore := computeLocationScore(candidate, request)
	trustComponent := clamp(candidate.Profile.TrustScore/100, 0, 1)

	semanticScore := neutralScore
	if len(requestEmbedding) > 0 && len(candidate.Profile.ProfileEmbedding) > 0 {
		semanticScore = vector.CosineSimilarity(requestEmbedding, candidate.Profile.ProfileEmbedding)
	}
	semanticComponent := clamp(semanticScore, 0, 1)

	score := weightSubject*subjectMatch +
		weightGrade*gradeMatch +
		weightOverlap*overlapScore +
		weightPrice*priceScore +
		weightLocation*locationScore +
		weightTrust*trustComponent +
		weightSemantic*semanticComponent

	// Reasons derive from raw sub-scores with fixed thresholds, not from
	// the weighted total.
	var reasons []string
	if subjectMatch == 1 {
		reasons = append(reasons, "Matches requested subject")
	}
	if gradeMatch == 1 {
		reasons = append(reasons, "Supports requested grade level")
	}
	if overlapScore > 0.5 {
		reasons = append(reasons, "Good schedule overlap")
	}
	if priceScore >= 0.8 {
		reasons = append(reasons, "Within budget range")
	}
	if locationScore >= 0.7 {
		reasons = append(reasons, "Location preference matched")
	}
	if semanticScore > 0.6 {
		reasons = append(reasons, "Profile aligns with description")
	}

	return models.MatchedTutor{Tutor: candidate, Score: score, Reasons: reasons}
}

// computeTimeOverlapScore sums, per desired slot, the best same-day
// overlap against the tutor's availability, normalised by the total
// desired minutes. No expressed preference scores neutral.
func computeTimeOverlapScore(availabilities []models.TutorAvailability, desiredSlots []models.TimeSlot) float64 {
	if len(desiredSlots) == 0 {
		return neutralScore
	}

	desiredMinutes := 0
	for _, slot := range desiredSlots {
		desiredMinutes += slot.Minutes()
	}
	if desiredMinutes == 0 {
		return neutralScore
	}

	overlapMinutes := 0
	for _, slot := range desiredSlots {
		best := 0
		for _, avail := range availabilities {
			if avail.DayOfWeek != slot.DayOfWeek {
				continue
			}
			start := avail.StartMinute
			if slot.StartMinute > start {
				start = slot.StartMinute
			}
			end := avail.EndMinute
			if slot.EndMinute < end {
				end = slot.EndMinute
			}
			if end > start && end-start > best {
				best = end - start
			}
		}
		overlapMinutes += best
	}

	return clamp(float64(overlapMinutes)/float64(desiredMinutes), 0, 1)
}

// computePriceScore scores the class whose price sits closest to the
// budget: at or under budget is a full match, above budget the score
// decays linearly to zero over a tolerance of max(5, 25% of budget).
func computePriceScore(budgetPerHour float64, classes []models.TutorClass) float64 {
	if len(classes) == 0 || budgetPerHour <= 0 {
		return neutralScore
	}

	closest := classes[0].PricePerHour
	for _, class := range classes[1:] {
		if abs(class.PricePerHour-budgetPerHour) < abs(closest-budgetPerHour) {
			closest = class.PricePerHour
		}
	}

	if closest <= budgetPerHour {
		return 1
	}

	overBudget := closest - budgetPerHour
	tolerance := budgetPerHour * 0.25
	if tolerance < 5 {
		tolerance = 5
	}
	return clamp(1-overBudget/tolerance, 0, 1)
}

// computeLocationScore prefers district matches over city matches; an
// online offering softens any mismatch.
func computeLocationScore(candidate models.CandidateTutor, request models.MatchingRequest) float64 {
	if request.City == "" && request.District == "" {
		return neutralScore
	}

	hasOnline := false
	for _, avail := range candidate.Availabilities {
		if avail.LocationType == models.LocationOnline {
			hasOnline = true
			break
		}
	}
	if !hasOnline {
		for _, class := range candidate.Classes {
			if class.LocationType == models.LocationOnline {
				hasOnline = true
				break
			}
		}
	}

	districtMatch := request.District != "" && candidate.Profile.District != nil &&
		strings.EqualFold(*candidate.Profile.District, request.District)
	cityMatch := request.City != "" && candidate.Profile.City != nil &&
		strings.EqualFold(*candidate.Profile.City, request.City)

	switch {
	case districtMatch:
		return 1
	case cityMatch && hasOnline:
		return 1
	case cityMatch:
		return 0.75
	case hasOnline:
		return 0.7
	default:
		return 0.3
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
