package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mentorme/matching-api/internal/models"
)

const tutorProfileColumns = `id, user_id, full_name, bio, education, city, district, verified,
	trust_score, average_rating, total_reviews, total_bookings, total_completed_bookings,
	total_cancelled_bookings, avg_response_time_seconds, policy_violations_count,
	profile_embedding, profile_embedding_model, last_trust_score_updated_at, created_at, updated_at`

// TutorRepository manages persistence for tutor profiles, their classes
// and weekly availabilities.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID fetches a tutor profile by ID.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.TutorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM tutor_profiles WHERE id = $1`, tutorProfileColumns)
	var profile models.TutorProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

func classConditions(filter models.CandidateFilter) ([]string, []interface{}) {
	conds := []string{"c.status = 'PUBLISHED'", "c.is_deleted = FALSE"}
	var args []interface{}

	if filter.SubjectID != "" {
		conds = append(conds, "c.subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.PriceMin != nil {
		conds = append(conds, "c.price_per_hour >= ?")
		args = append(args, *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		conds = append(conds, "c.price_per_hour <= ?")
		args = append(args, *filter.PriceMax)
	}
	return conds, args
}

// FindCandidates returns the coarse-filtered candidate pool for a
// matching request: verified tutors with at least one published class in
// the requested subject, optionally narrowed by city, district, price
// range and minimum trust score. Classes attached to each candidate are
// filtered the same way so scoring only sees eligible offerings.
func (r *TutorRepository) FindCandidates(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateTutor, error) {
	classConds, classArgs := classConditions(filter)

	profileConds := []string{"t.verified = TRUE"}
	var profileArgs []interface{}
	if filter.City != "" {
		profileConds = append(profileConds, "t.city = ?")
		profileArgs = append(profileArgs, filter.City)
	}
	if filter.District != "" {
		profileConds = append(profileConds, "t.district = ?")
		profileArgs = append(profileArgs, filter.District)
	}
	if filter.TrustScoreMin != nil {
		profileConds = append(profileConds, "t.trust_score >= ?")
		profileArgs = append(profileArgs, *filter.TrustScoreMin)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM tutor_profiles t
		WHERE %s AND EXISTS (
			SELECT 1 FROM classes c WHERE c.tutor_id = t.id AND %s
		)
		ORDER BY t.trust_score DESC, t.created_at ASC
		LIMIT %d`,
		prefixColumns("t", tutorProfileColumns),
		strings.Join(profileConds, " AND "),
		strings.Join(classConds, " AND "),
		limit,
	)

	args := append(append([]interface{}{}, profileArgs...), classArgs...)

	var profiles []models.TutorProfile
	if err := r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find candidate tutors: %w", err)
	}
	if len(profiles) == 0 {
		return []models.CandidateTutor{}, nil
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}

	classes, err := r.classesForTutors(ctx, ids, classConds, classArgs)
	if err != nil {
		return nil, err
	}
	availabilities, err := r.availabilitiesForTutors(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateTutor, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, models.CandidateTutor{
			Profile:        p,
			Classes:        classes[p.ID],
			Availabilities: availabilities[p.ID],
		})
	}
	return candidates, nil
}

func (r *TutorRepository) classesForTutors(ctx context.Context, tutorIDs []string, classConds []string, classArgs []interface{}) (map[string][]models.TutorClass, error) {
	query := fmt.Sprintf(`SELECT c.id, c.tutor_id, c.subject_id, c.target_grade, c.price_per_hour,
			c.location_type, c.city, c.district
		FROM classes c
		WHERE %s AND c.tutor_id IN (?)`, strings.Join(classConds, " AND "))

	expanded, inArgs, err := sqlx.In(query, append(append([]interface{}{}, classArgs...), tutorIDs)...)
	if err != nil {
		return nil, fmt.Errorf("expand class query: %w", err)
	}

	var classes []models.TutorClass
	if err := r.db.SelectContext(ctx, &classes, r.db.Rebind(expanded), inArgs...); err != nil {
		return nil, fmt.Errorf("load candidate classes: %w", err)
	}

	byTutor := make(map[string][]models.TutorClass, len(tutorIDs))
	for _, c := range classes {
		byTutor[c.TutorID] = append(byTutor[c.TutorID], c)
	}
	return byTutor, nil
}

func (r *TutorRepository) availabilitiesForTutors(ctx context.Context, tutorIDs []string) (map[string][]models.TutorAvailability, error) {
	query, inArgs, err := sqlx.In(`SELECT id, tutor_id, day_of_week, start_minute, end_minute, location_type
		FROM tutor_availabilities WHERE tutor_id IN (?) ORDER BY day_of_week, start_minute`, tutorIDs)
	if err != nil {
		return nil, fmt.Errorf("expand availability query: %w", err)
	}

	var availabilities []models.TutorAvailability
	if err := r.db.SelectContext(ctx, &availabilities, r.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("load candidate availabilities: %w", err)
	}

	byTutor := make(map[string][]models.TutorAvailability, len(tutorIDs))
	for _, a := range availabilities {
		byTutor[a.TutorID] = append(byTutor[a.TutorID], a)
	}
	return byTutor, nil
}

// GetProfileText loads the free-text parts of a tutor profile that feed
// the profile embedding.
func (r *TutorRepository) GetProfileText(ctx context.Context, id string) (*models.TutorProfileText, error) {
	var row struct {
		Bio       *string `db:"bio"`
		Education *string `db:"education"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT bio, education FROM tutor_profiles WHERE id = $1`, id); err != nil {
		return nil, err
	}

	var certificates []string
	if err := r.db.SelectContext(ctx, &certificates,
		`SELECT name FROM tutor_certificates WHERE tutor_id = $1 ORDER BY created_at`, id); err != nil {
		return nil, fmt.Errorf("load tutor certificates: %w", err)
	}

	return &models.TutorProfileText{Bio: row.Bio, Education: row.Education, Certificates: certificates}, nil
}

// ListIDsOrderedByCreation returns all tutor profile IDs in creation
// order, optionally excluding a skip set. Used by the embedding backfill.
func (r *TutorRepository) ListIDsOrderedByCreation(ctx context.Context, excludeIDs []string) ([]string, error) {
	query := `SELECT id FROM tutor_profiles ORDER BY created_at ASC`
	var args []interface{}
	if len(excludeIDs) > 0 {
		expanded, inArgs, err := sqlx.In(`SELECT id FROM tutor_profiles WHERE id NOT IN (?) ORDER BY created_at ASC`, excludeIDs)
		if err != nil {
			return nil, fmt.Errorf("expand exclude list: %w", err)
		}
		query = r.db.Rebind(expanded)
		args = inArgs
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list tutor ids: %w", err)
	}
	return ids, nil
}

// UpdateProfileEmbedding persists a tutor's profile embedding and model
// tag. A nil vector clears both rather than leaving a stale embedding.
func (r *TutorRepository) UpdateProfileEmbedding(ctx context.Context, id string, embedding models.Vector, modelTag *string) error {
	const query = `UPDATE tutor_profiles
		SET profile_embedding = $2, profile_embedding_model = $3, updated_at = $4
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, embedding, modelTag, time.Now().UTC()); err != nil {
		return fmt.Errorf("update profile embedding: %w", err)
	}
	return nil
}

// UpdateTrustScore persists a freshly computed trust score together with
// the aggregate snapshot it was derived from.
func (r *TutorRepository) UpdateTrustScore(ctx context.Context, id string, score float64, aggregates models.TrustAggregates) error {
	const query = `UPDATE tutor_profiles
		SET trust_score = $2,
			total_bookings = $3,
			total_completed_bookings = $4,
			total_cancelled_bookings = $5,
			total_reviews = $6,
			average_rating = $7,
			last_trust_score_updated_at = $8,
			updated_at = $8
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score,
		aggregates.TotalBookings,
		aggregates.TotalCompletedBookings,
		aggregates.TotalCancelledBookings,
		aggregates.TotalReviews,
		aggregates.AverageRating,
		aggregates.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update trust score: %w", err)
	}
	return nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
