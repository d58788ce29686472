package service

import (
	"context"
	"fmt"
	"strings"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/repository"

	"go.uber.org/zap"
)

// qualificationSeed is the built-in catalog. Seeding is idempotent and only
// ever adds rows; catalog entries are deactivated, never deleted.
var qualificationSeed = []domain.Qualification{
	{Code: "REQ_PFK", Label: "Pflegefachkraft"},
	{Code: "REQ_PFA", Label: "Pflegefachassistenz"},
	{Code: "REQ_UK", Label: "Ungelernte Kraft"},
	{Code: "REQ_MFA", Label: "MFA"},
	{Code: "FACH_INT", Label: "Fachpflegekraft fuer Intensivpflege und Anaesthesie"},
	{Code: "FACH_OP", Label: "Fachpflegekraft fuer OP-Dienst / perioperative Pflege"},
	{Code: "FACH_ONK", Label: "Fachpflegekraft fuer Onkologie"},
	{Code: "FACH_PSY", Label: "Fachpflegekraft fuer Psychiatrie (psychiatrische Pflege)"},
	{Code: "FACH_PAE", Label: "Fachpflegekraft fuer Paediatrische Intensivpflege / Paediatrie"},
	{Code: "FACH_END", Label: "Fachpflegekraft fuer Endoskopie"},
	{Code: "FUNC_PRAXIS", Label: "Praxisanleitung (Praxisanleiter:in)"},
	{Code: "FUNC_WUND", Label: "Wundexpert:in ICW / Wundmanager:in"},
	{Code: "FUNC_PAIN", Label: "Pain Nurse / algesiologische Fachassistenz"},
	{Code: "FUNC_HYG", Label: "Hygienebeauftragte:r in der Pflege / Hygienefachkraft"},
	{Code: "FUNC_PALL", Label: "Palliativ-Care-Fachkraft"},
	{Code: "FUNC_ATEM", Label: "Atemtherapeut:in / Atmungstherapie"},
	{Code: "FUNC_STOMA", Label: "Stoma- und Kontinenzberater:in"},
	{Code: "FUNC_DIAB", Label: "Diabetesberatung"},
	{Code: "FUNC_CASE", Label: "Case Management / Entlassmanagement"},
	{Code: "FUNC_NOTF", Label: "Notfallpflege"},
	{Code: "FUNC_GERONTO", Label: "Gerontopsychiatrische Zusatzqualifikation"},
	{Code: "LEAD_STL", Label: "Stationsleitung / Leitung einer Einheit"},
	{Code: "LEAD_PDL", Label: "Pflegedienstleitung (PDL)"},
	{Code: "LEAD_MGMT", Label: "Pflegemanagement / Pflegepaedagogik"},
	{Code: "LEAD_QM", Label: "Qualitaetsmanagement (QM-Beauftragte:r / Auditor:in)"},
	{Code: "AKUT_REA", Label: "Reanimations-/ALS-/BLS-Instruktor:in"},
	{Code: "AKUT_DEESK", Label: "Deeskalation / Aggressionsmanagement"},
	{Code: "AKUT_CIRS", Label: "CIRS-/Patientensicherheitsbeauftragte:r"},
	{Code: "AKUT_TRANS", Label: "Transfusionsbeauftragte:r / Blutprodukte-Schulung"},
	{Code: "AKUT_MPG", Label: "Medizinproduktebeauftragte:r / MPG-Einweisungen"},
	{Code: "AKUT_ZSVA", Label: "Sterilgut/ZSVA-Grundlagen"},
}

// QualificationService seeds and serves the global qualification catalog.
type QualificationService struct {
	repo   repository.QualificationsRepository
	logger *zap.Logger
}

func NewQualificationService(repo repository.QualificationsRepository, logger *zap.Logger) *QualificationService {
	return &QualificationService{repo: repo, logger: logger}
}

// EnsureSeeded inserts every built-in qualification whose code is unknown
// and whose label (case-insensitive, trimmed) does not collide with a
// legacy row.
func (s *QualificationService) EnsureSeeded(ctx context.Context) error {
	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load qualification catalog: %w", err)
	}

	codes := map[string]bool{}
	labels := map[string]bool{}
	for _, q := range existing {
		if q.Code != "" {
			codes[q.Code] = true
		}
		labels[strings.ToLower(strings.TrimSpace(q.Label))] = true
	}

	for _, seed := range qualificationSeed {
		if seed.Code == "" || seed.Label == "" {
			continue
		}
		if codes[seed.Code] || labels[strings.ToLower(strings.TrimSpace(seed.Label))] {
			continue
		}
		if err := s.repo.Insert(ctx, seed.Code, seed.Label); err != nil {
			return err
		}
		s.logger.Info("Seeded qualification", zap.String("code", seed.Code))
	}
	return nil
}

// List returns the active catalog ordered by label.
func (s *QualificationService) List(ctx context.Context) ([]domain.Qualification, error) {
	return s.repo.ListActive(ctx)
}
