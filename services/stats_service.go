package services

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsService serves the read-only registration dashboard. Pure
// aggregation over committed rows; it holds no invariants and never
// mutates anything.
type StatsService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStatsService(db *gorm.DB, logger *zap.Logger) *StatsService {
	return &StatsService{db: db, logger: logger}
}

type RegistrationSummary struct {
	TotalUsers        int64   `json:"totalUsers"`
	Males             int64   `json:"males"`
	Females           int64   `json:"females"`
	InTeams           int64   `json:"inTeams"`
	WithoutTeams      int64   `json:"withoutTeams"`
	ParticipationRate float64 `json:"participationRate"`
}

type HostelStat struct {
	HostelType        string  `json:"hostelType"`
	TotalStudents     int64   `json:"totalStudents"`
	InTeams           int64   `json:"inTeams"`
	NotInTeams        int64   `json:"notInTeams"`
	ParticipationRate float64 `json:"participationRate"`
}

type SchoolStat struct {
	School            string  `json:"school"`
	TotalStudents     int64   `json:"totalStudents"`
	InTeams           int64   `json:"inTeams"`
	TeamCount         int64   `json:"teamCount"`
	ParticipationRate float64 `json:"participationRate"`
}

type TeamComposition struct {
	TotalTeams      int64   `json:"totalTeams"`
	FemaleOnlyTeams int64   `json:"femaleOnlyTeams"`
	MaleOnlyTeams   int64   `json:"maleOnlyTeams"`
	MixedTeams      int64   `json:"mixedTeams"`
	AvgTeamSize     float64 `json:"avgTeamSize"`
}

type BranchStat struct {
	Branch            string  `json:"branch"`
	TotalStudents     int64   `json:"totalStudents"`
	Males             int64   `json:"males"`
	Females           int64   `json:"females"`
	InTeams           int64   `json:"inTeams"`
	ParticipationRate float64 `json:"participationRate"`
}

type Statistics struct {
	Summary     RegistrationSummary `json:"summary"`
	Hostels     []HostelStat        `json:"hostels"`
	Schools     []SchoolStat        `json:"schools"`
	Composition TeamComposition     `json:"composition"`
	Branches    []BranchStat        `json:"branches"`
}

func (s *StatsService) Collect(ctx context.Context) (*Statistics, error) {
	db := s.db.WithContext(ctx)
	stats := &Statistics{Hostels: []HostelStat{}, Schools: []SchoolStat{}, Branches: []BranchStat{}}

	err := db.Raw(`
		SELECT
			COUNT(*) AS total_users,
			COUNT(CASE WHEN gender = 'male' THEN 1 END) AS males,
			COUNT(CASE WHEN gender = 'female' THEN 1 END) AS females,
			COUNT(CASE WHEN team_id IS NOT NULL THEN 1 END) AS in_teams,
			COUNT(CASE WHEN team_id IS NULL THEN 1 END) AS without_teams
		FROM users`).Scan(&stats.Summary).Error
	if err != nil {
		return nil, err
	}
	stats.Summary.ParticipationRate = rate(stats.Summary.InTeams, stats.Summary.TotalUsers)

	err = db.Raw(`
		SELECT
			hostel_type,
			COUNT(*) AS total_students,
			COUNT(CASE WHEN team_id IS NOT NULL THEN 1 END) AS in_teams,
			COUNT(CASE WHEN team_id IS NULL THEN 1 END) AS not_in_teams
		FROM users
		GROUP BY hostel_type
		ORDER BY total_students DESC`).Scan(&stats.Hostels).Error
	if err != nil {
		return nil, err
	}
	for i := range stats.Hostels {
		stats.Hostels[i].ParticipationRate = rate(stats.Hostels[i].InTeams, stats.Hostels[i].TotalStudents)
	}

	err = db.Raw(`
		SELECT
			school,
			COUNT(*) AS total_students,
			COUNT(CASE WHEN team_id IS NOT NULL THEN 1 END) AS in_teams,
			COUNT(DISTINCT team_id) AS team_count
		FROM users
		GROUP BY school
		ORDER BY total_students DESC`).Scan(&stats.Schools).Error
	if err != nil {
		return nil, err
	}
	for i := range stats.Schools {
		stats.Schools[i].ParticipationRate = rate(stats.Schools[i].InTeams, stats.Schools[i].TotalStudents)
	}

	err = db.Raw(`
		SELECT
			COUNT(*) AS total_teams,
			COUNT(CASE WHEN team_type = 'female' THEN 1 END) AS female_only_teams,
			COUNT(CASE WHEN team_type = 'male' THEN 1 END) AS male_only_teams,
			COUNT(CASE WHEN team_type = 'mixed' THEN 1 END) AS mixed_teams,
			COALESCE(AVG(team_size), 0) AS avg_team_size
		FROM (
			SELECT
				t.id,
				COUNT(*) AS team_size,
				CASE
					WHEN COUNT(*) = SUM(CASE WHEN u.gender = 'female' THEN 1 ELSE 0 END) THEN 'female'
					WHEN COUNT(*) = SUM(CASE WHEN u.gender = 'male' THEN 1 ELSE 0 END) THEN 'male'
					ELSE 'mixed'
				END AS team_type
			FROM teams t
			JOIN users u ON u.team_id = t.id
			GROUP BY t.id
		) sized`).Scan(&stats.Composition).Error
	if err != nil {
		return nil, err
	}
	stats.Composition.AvgTeamSize = round2(stats.Composition.AvgTeamSize)

	err = db.Raw(`
		SELECT
			branch,
			COUNT(*) AS total_students,
			COUNT(CASE WHEN gender = 'male' THEN 1 END) AS males,
			COUNT(CASE WHEN gender = 'female' THEN 1 END) AS females,
			COUNT(CASE WHEN team_id IS NOT NULL THEN 1 END) AS in_teams
		FROM users
		GROUP BY branch
		ORDER BY total_students DESC`).Scan(&stats.Branches).Error
	if err != nil {
		return nil, err
	}
	for i := range stats.Branches {
		stats.Branches[i].ParticipationRate = rate(stats.Branches[i].InTeams, stats.Branches[i].TotalStudents)
	}

	return stats, nil
}

func rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
