package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/prompts"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
)

// FacultySearchService runs AI faculty matching and moves results into the
// shared faculty database.
type FacultySearchService interface {
	// ParseRequirements structures a consultant's free-text request.
	ParseRequirements(ctx context.Context, text, clientID string) (models.SearchParams, error)

	// Search returns ranked matches for params, grounded by web search when enabled.
	Search(ctx context.Context, params models.SearchParams) (*models.SearchResult, error)

	// SaveMatches adds matches to the database (deduplicated) and optionally
	// links every saved record to a client. Returns the record ids in input order.
	SaveMatches(ctx context.Context, req SaveMatchesRequest) ([]string, error)

	// FetchRefresh looks up one saved record again and returns the changes.
	FetchRefresh(ctx context.Context, facultyID string) (*models.FacultyPatch, error)

	// RefreshRecord fetches and applies a refresh.
	RefreshRecord(ctx context.Context, facultyID string) (*models.FacultyRecord, error)
}

// SaveMatchesRequest is the input of SaveMatches. Empty Country or
// FieldCategory are inferred per match from Params.
type SaveMatchesRequest struct {
	Matches       []models.FacultyMatch `json:"matches"`
	Country       string                `json:"country,omitempty"`
	FieldCategory string                `json:"field_category,omitempty"`
	LinkClientID  string                `json:"link_client_id,omitempty"`
	Params        *models.SearchParams  `json:"params,omitempty"`
}

type facultySearchService struct {
	clients   repositories.ClientRepository
	faculty   repositories.FacultyRepository
	llm       llm.LLMClient
	webSearch bool
	logger    *zap.Logger
}

var _ FacultySearchService = (*facultySearchService)(nil)

// NewFacultySearchService creates the service. client may be nil when no AI
// provider is configured.
func NewFacultySearchService(
	clients repositories.ClientRepository,
	faculty repositories.FacultyRepository,
	client llm.LLMClient,
	webSearch bool,
	logger *zap.Logger,
) FacultySearchService {
	return &facultySearchService{
		clients:   clients,
		faculty:   faculty,
		llm:       client,
		webSearch: webSearch,
		logger:    logger.Named("faculty-search"),
	}
}

func (s *facultySearchService) ParseRequirements(ctx context.Context, text, clientID string) (models.SearchParams, error) {
	if strings.TrimSpace(text) == "" {
		return models.SearchParams{}, fmt.Errorf("%w: requirements text is empty", apperrors.ErrInvalidInput)
	}
	if s.llm == nil {
		return models.SearchParams{}, apperrors.ErrAIUnavailable
	}

	draft, _, err := llm.GenerateJSON[prompts.SearchParamsDraft](ctx, s.llm, &llm.Request{
		SystemMessage: prompts.FacultySearchSystemMessage,
		Prompt:        prompts.BuildRequirementsPrompt(text),
		Temperature:   0.1,
		Schema:        prompts.SearchParamsSchema(),
	})
	if err != nil {
		return models.SearchParams{}, fmt.Errorf("parse requirements: %w", err)
	}
	return draft.ToParams(clientID), nil
}

func (s *facultySearchService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResult, error) {
	if len(params.Countries) == 0 && params.Field == "" && len(params.ResearchInterests) == 0 {
		return nil, fmt.Errorf("%w: give at least a country, field or research interest", apperrors.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, apperrors.ErrAIUnavailable
	}

	var client *models.Client
	if params.ClientID != "" {
		c, err := s.clients.Get(ctx, params.ClientID)
		if err != nil {
			return nil, fmt.Errorf("load client %s: %w", params.ClientID, err)
		}
		client = c
	}

	draft, resp, err := llm.GenerateJSON[prompts.FacultyMatchesDraft](ctx, s.llm, &llm.Request{
		SystemMessage: prompts.FacultySearchSystemMessage,
		Prompt:        prompts.BuildFacultySearchPrompt(params, client),
		Temperature:   0.2,
		WebSearch:     s.webSearch,
		Schema:        prompts.FacultyMatchesSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("faculty search: %w", err)
	}

	limit := params.MaxResults
	if limit <= 0 {
		limit = prompts.DefaultMaxResults
	}

	result := &models.SearchResult{
		Params:  params,
		Matches: make([]models.FacultyMatch, 0, len(draft.Matches)),
	}
	seen := make(map[models.DedupKey]bool)
	for i := range draft.Matches {
		m := draft.Matches[i].ToMatch()
		key := m.Faculty.DedupKey()
		if key.Name == "" || key.University == "" || seen[key] {
			continue
		}
		seen[key] = true
		result.Matches = append(result.Matches, m)
		if len(result.Matches) == limit {
			break
		}
	}
	for _, src := range resp.Sources {
		result.Sources = append(result.Sources, models.WebSource{Title: src.Title, URI: src.URI})
	}

	s.logger.Info("Faculty search completed",
		zap.Strings("countries", params.Countries),
		zap.String("field", params.Field),
		zap.Int("returned", len(draft.Matches)),
		zap.Int("kept", len(result.Matches)),
		zap.Int("sources", len(result.Sources)))

	return result, nil
}

func (s *facultySearchService) SaveMatches(ctx context.Context, req SaveMatchesRequest) ([]string, error) {
	if len(req.Matches) == 0 {
		return nil, fmt.Errorf("%w: no matches to save", apperrors.ErrInvalidInput)
	}
	if req.LinkClientID != "" {
		if _, err := s.clients.Get(ctx, req.LinkClientID); err != nil {
			return nil, fmt.Errorf("load client %s: %w", req.LinkClientID, err)
		}
	}

	ids := make([]string, 0, len(req.Matches))
	for _, m := range req.Matches {
		country, field := req.Country, req.FieldCategory
		if country == "" || field == "" {
			inferredCountry, inferredField := InferClassification(req.Params, m)
			if country == "" {
				country = inferredCountry
			}
			if field == "" {
				field = inferredField
			}
		}

		member := m.Faculty
		if member.University == "" {
			member.University = m.University
		}
		id, err := s.faculty.AddFacultyToDatabase(ctx, member, country, field)
		if err != nil {
			return ids, fmt.Errorf("save %s: %w", member.Name, err)
		}
		if req.LinkClientID != "" {
			if err := s.faculty.Link(ctx, id, req.LinkClientID); err != nil {
				return ids, fmt.Errorf("link %s: %w", member.Name, err)
			}
		}
		ids = append(ids, id)
	}

	s.logger.Info("Saved faculty matches",
		zap.Int("count", len(ids)),
		zap.String("linked_client_id", req.LinkClientID))

	return ids, nil
}

func (s *facultySearchService) FetchRefresh(ctx context.Context, facultyID string) (*models.FacultyPatch, error) {
	rec, err := s.faculty.GetFaculty(ctx, facultyID)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, apperrors.ErrAIUnavailable
	}

	draft, _, err := llm.GenerateJSON[prompts.FacultyMemberDraft](ctx, s.llm, &llm.Request{
		SystemMessage: prompts.FacultySearchSystemMessage,
		Prompt:        prompts.BuildFacultyRefreshPrompt(rec),
		Temperature:   0.1,
		WebSearch:     s.webSearch,
		Schema:        prompts.FacultyRefreshSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", rec.Name, err)
	}

	return refreshPatch(draft.ToMember()), nil
}

func (s *facultySearchService) RefreshRecord(ctx context.Context, facultyID string) (*models.FacultyRecord, error) {
	patch, err := s.FetchRefresh(ctx, facultyID)
	if err != nil {
		return nil, err
	}
	return s.faculty.UpdateFaculty(ctx, facultyID, patch)
}

// refreshPatch keeps only the fields the lookup actually confirmed. Name and
// university are identity and never change on a refresh.
func refreshPatch(m models.FacultyMember) *models.FacultyPatch {
	p := &models.FacultyPatch{}
	set := func(dst **string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = &v
		}
	}
	set(&p.Title, m.Title)
	set(&p.Department, m.Department)
	set(&p.Email, m.Email)
	set(&p.ProfileURL, m.ProfileURL)
	set(&p.LabURL, m.LabURL)
	set(&p.RecentActivity, m.RecentActivity)
	set(&p.RecruitingStatus, m.RecruitingStatus)
	set(&p.Location, m.Location)
	if len(m.ResearchAreas) > 0 {
		areas := m.ResearchAreas
		p.ResearchAreas = &areas
	}
	return p
}

// countryAliases maps spellings seen in faculty locations to the name used
// for classification.
var countryAliases = map[string]string{
	"usa":            "USA",
	"us":             "USA",
	"u.s.":           "USA",
	"u.s.a.":         "USA",
	"united states":  "USA",
	"america":        "USA",
	"uk":             "UK",
	"u.k.":           "UK",
	"united kingdom": "UK",
	"england":        "UK",
	"scotland":       "UK",
	"canada":         "Canada",
	"australia":      "Australia",
	"singapore":      "Singapore",
	"hong kong":      "Hong Kong",
	"germany":        "Germany",
	"netherlands":    "Netherlands",
	"switzerland":    "Switzerland",
	"france":         "France",
	"japan":          "Japan",
}

// NormalizeCountry returns the canonical spelling of a country, or the
// trimmed input when it is not a known alias.
func NormalizeCountry(country string) string {
	c := strings.TrimSpace(country)
	if canonical, ok := countryAliases[strings.ToLower(c)]; ok {
		return canonical
	}
	return c
}

// InferClassification picks a country and field category for a match the
// caller did not classify. A single target country is used as is; with
// several, the one named in the faculty location wins. A location naming a
// known country outside the targets still classifies the record. The field
// is the search field.
func InferClassification(params *models.SearchParams, m models.FacultyMatch) (country, field string) {
	var targets []string
	if params != nil {
		targets = params.Countries
		field = params.Field
	}
	if len(targets) == 1 {
		return NormalizeCountry(targets[0]), field
	}

	var named []string
	for _, part := range strings.Split(m.Faculty.Location, ",") {
		if canonical, ok := countryAliases[strings.ToLower(strings.TrimSpace(part))]; ok {
			named = append(named, canonical)
		}
	}
	for _, t := range targets {
		target := NormalizeCountry(t)
		for _, n := range named {
			if strings.EqualFold(target, n) {
				return target, field
			}
		}
	}
	if len(named) > 0 {
		return named[len(named)-1], field
	}
	return "", field
}
