package service

import (
	"context"
	"fmt"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/repository"

	"go.uber.org/zap"
)

// PPUGSyncService pulls compliance statuses from the external PPUG API and
// upserts them into the local status table, mapped onto stations by code or
// by the folded name match.
type PPUGSyncService struct {
	client   *PPUGClient
	insights repository.InsightsRepository
	logger   *zap.Logger
}

func NewPPUGSyncService(client *PPUGClient, insights repository.InsightsRepository, logger *zap.Logger) *PPUGSyncService {
	return &PPUGSyncService{
		client:   client,
		insights: insights,
		logger:   logger,
	}
}

// SyncResult reports how the fetched statuses mapped onto local stations.
type SyncResult struct {
	OK        bool     `json:"ok"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Synced    int      `json:"synced"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// Sync fetches the month's statuses for one tenant's stations. Statuses
// that match no station are reported back, not an error.
func (s *PPUGSyncService) Sync(ctx context.Context, tenantID int64, year, month int) (*SyncResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("PPUG sync is not configured")
	}

	statuses, err := s.client.FetchStatuses(ctx, year, month)
	if err != nil {
		return nil, err
	}

	stations, err := s.insights.ListStations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byKey := map[string]int64{}
	for _, st := range stations {
		if key := domain.MatchKey(st.Code); key != "" {
			byKey[key] = st.ID
		}
		if key := domain.MatchKey(st.Name); key != "" {
			byKey[key] = st.ID
		}
	}

	var rows []domain.PPUGStatus
	var unmatched []string
	for _, status := range statuses {
		stationID, ok := byKey[domain.MatchKey(status.StationCode)]
		if !ok {
			stationID, ok = byKey[domain.MatchKey(status.StationName)]
		}
		if !ok {
			unmatched = append(unmatched, firstNonEmpty(status.StationCode, status.StationName))
			continue
		}
		rows = append(rows, domain.PPUGStatus{
			StationID:   stationID,
			Year:        year,
			Month:       month,
			Status:      status.Status,
			RatioActual: status.RatioActual,
			RatioTarget: status.RatioTarget,
		})
	}

	if len(rows) > 0 {
		if err := s.insights.UpsertPPUGStatus(ctx, rows); err != nil {
			return nil, err
		}
	}

	s.logger.Info("PPUG statuses synced",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("synced", len(rows)),
		zap.Int("unmatched", len(unmatched)),
	)

	return &SyncResult{
		OK:        true,
		Year:      year,
		Month:     month,
		Synced:    len(rows),
		Unmatched: unmatched,
	}, nil
}
