package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/notifications"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"

	"gopkg.in/yaml.v3"
)

// AchievementService evaluates the achievement catalog against user stats.
type AchievementService struct {
	achievementRepo repository.AchievementRepository
	userService     *UserService
	notifier        *notifications.Notifier
}

// NewAchievementService returns a new AchievementService.
func NewAchievementService(
	achievementRepo repository.AchievementRepository,
	userService *UserService,
	notifier *notifications.Notifier,
) *AchievementService {
	return &AchievementService{
		achievementRepo: achievementRepo,
		userService:     userService,
		notifier:        notifier,
	}
}

// catalogFile is the YAML shape of the achievement catalog.
type catalogFile struct {
	Achievements []catalogEntry `yaml:"achievements"`
}

type catalogEntry struct {
	Code        string                 `yaml:"code"`
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Icon        string                 `yaml:"icon"`
	Rule        models.AchievementRule `yaml:"rule"`
}

// LoadCatalog parses the YAML achievement catalog and syncs it into storage.
func (s *AchievementService) LoadCatalog(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read achievement catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse achievement catalog: %w", err)
	}

	catalog := make([]models.Achievement, 0, len(file.Achievements))
	seen := make(map[string]bool, len(file.Achievements))
	for _, entry := range file.Achievements {
		if entry.Code == "" {
			return fmt.Errorf("achievement catalog: entry without code")
		}
		if seen[entry.Code] {
			return fmt.Errorf("achievement catalog: duplicate code %q", entry.Code)
		}
		seen[entry.Code] = true
		if err := validateRule(entry.Rule); err != nil {
			return fmt.Errorf("achievement catalog %q: %w", entry.Code, err)
		}
		catalog = append(catalog, models.Achievement{
			Code:        entry.Code,
			Title:       entry.Title,
			Description: entry.Description,
			Icon:        entry.Icon,
			Rule:        entry.Rule,
		})
	}

	return s.achievementRepo.SyncCatalog(ctx, catalog)
}

func validateRule(rule models.AchievementRule) error {
	switch rule.Kind {
	case models.RuleKindBoolean:
		if _, ok := (models.UserStats{}).Bool(rule.Field); !ok {
			return fmt.Errorf("unknown boolean stat field %q", rule.Field)
		}
	case models.RuleKindThreshold:
		if _, ok := (models.UserStats{}).Number(rule.Field); !ok {
			return fmt.Errorf("unknown numeric stat field %q", rule.Field)
		}
		if rule.Min <= 0 {
			return fmt.Errorf("threshold rule needs a positive min")
		}
	default:
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	return nil
}

// EvaluateRule interprets a rule against a stat snapshot, returning whether
// it is satisfied and the progress value (for threshold rules, min(stat, Min)).
func EvaluateRule(rule models.AchievementRule, stats models.UserStats) (unlocked bool, progress float64, target float64) {
	switch rule.Kind {
	case models.RuleKindBoolean:
		value, ok := stats.Bool(rule.Field)
		if !ok {
			return false, 0, 1
		}
		if value == rule.Equals {
			return true, 1, 1
		}
		return false, 0, 1
	case models.RuleKindThreshold:
		value, ok := stats.Number(rule.Field)
		if !ok {
			return false, 0, rule.Min
		}
		progress = value
		if progress > rule.Min {
			progress = rule.Min
		}
		return value >= rule.Min, progress, rule.Min
	}
	return false, 0, 0
}

// AchievementStatus pairs a catalog entry with a user's progress.
type AchievementStatus struct {
	Achievement models.Achievement `json:"achievement"`
	Unlocked    bool               `json:"unlocked"`
	UnlockedAt  *time.Time         `json:"unlocked_at,omitempty"`
	Progress    float64            `json:"progress"`
	Target      float64            `json:"target"`
}

// CheckAndUnlock evaluates all rules for the user, persisting any new
// unlocks. Returns the codes unlocked by this evaluation.
func (s *AchievementService) CheckAndUnlock(ctx context.Context, userID uint) ([]string, error) {
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.userService.CollectStats(ctx, user)
	if err != nil {
		return nil, err
	}

	catalog, err := s.achievementRepo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	var newlyUnlocked []string
	for _, achievement := range catalog {
		unlocked, _, _ := EvaluateRule(achievement.Rule, stats)
		if !unlocked {
			continue
		}
		fresh, err := s.achievementRepo.Unlock(ctx, userID, achievement.ID)
		if err != nil {
			return nil, err
		}
		if fresh {
			newlyUnlocked = append(newlyUnlocked, achievement.Code)
			s.announceUnlock(ctx, userID, achievement)
		}
	}
	return newlyUnlocked, nil
}

// ListForUser returns every catalog entry with the user's unlock state and progress.
func (s *AchievementService) ListForUser(ctx context.Context, userID uint) ([]AchievementStatus, error) {
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.userService.CollectStats(ctx, user)
	if err != nil {
		return nil, err
	}

	catalog, err := s.achievementRepo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.achievementRepo.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[uint]time.Time, len(unlocked))
	for _, ua := range unlocked {
		unlockedAt[ua.AchievementID] = ua.UnlockedAt
	}

	statuses := make([]AchievementStatus, 0, len(catalog))
	for _, achievement := range catalog {
		_, progress, target := EvaluateRule(achievement.Rule, stats)
		status := AchievementStatus{
			Achievement: achievement,
			Progress:    progress,
			Target:      target,
		}
		if at, ok := unlockedAt[achievement.ID]; ok {
			status.Unlocked = true
			status.UnlockedAt = &at
			status.Progress = target
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *AchievementService) announceUnlock(ctx context.Context, userID uint, achievement models.Achievement) {
	if s.notifier == nil {
		return
	}
	payload := fmt.Sprintf(
		`{"type":"achievement_unlocked","payload":{"code":%q,"title":%q}}`,
		achievement.Code, achievement.Title,
	)
	_ = s.notifier.PublishUser(ctx, userID, payload)
}
