package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/referral-api/internal/dto"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
	"github.com/noah-isme/referral-api/pkg/export"
)

var referralReportHeaders = []string{
	"College", "College Email", "Referral Code", "Student", "School", "Standard", "Phone", "Enabled", "Video URL",
}

type referralLister interface {
	ListCollegesWithReferrals(ctx context.Context, query dto.ReferralQuery) ([]dto.CollegeWithReferrals, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the referral directory as a downloadable report.
type ExportService struct {
	referrals referralLister
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService; nil renderers fall back to
// the defaults from pkg/export.
func NewExportService(referrals referralLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{referrals: referrals, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportReferrals renders one row per referred school, disabled ones included.
func (s *ExportService) ExportReferrals(ctx context.Context, format dto.ExportFormat) (*dto.ReferralReport, error) {
	if format == "" {
		format = dto.ExportFormatCSV
	}
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "format must be csv or pdf")
	}

	colleges, err := s.referrals.ListCollegesWithReferrals(ctx, dto.ReferralQuery{IncludeDisabled: true})
	if err != nil {
		return nil, err
	}
	dataset := BuildReferralDataset(colleges)

	report := &dto.ReferralReport{
		Filename: fmt.Sprintf("referrals_%s.%s", s.now().UTC().Format("20060102_150405"), format),
	}
	switch format {
	case dto.ExportFormatPDF:
		report.ContentType = "application/pdf"
		report.Body, err = s.pdf.Render(dataset, "College Referrals")
	default:
		report.ContentType = "text/csv"
		report.Body, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render referral report")
	}
	s.logger.Info("referral report exported", zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return report, nil
}

// BuildReferralDataset flattens colleges and their referred schools into rows.
func BuildReferralDataset(colleges []dto.CollegeWithReferrals) export.Dataset {
	dataset := export.Dataset{Headers: referralReportHeaders}
	for _, college := range colleges {
		for _, school := range college.ReferredSchools {
			video := ""
			if school.VideoURL != nil {
				video = *school.VideoURL
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"College":       college.CollegeName,
				"College Email": college.Email,
				"Referral Code": college.ReferralCode,
				"Student":       school.Name,
				"School":        school.SchoolName,
				"Standard":      school.Standard,
				"Phone":         school.PhoneNumber,
				"Enabled":       strconv.FormatBool(school.IsEnabled),
				"Video URL":     video,
			})
		}
	}
	return dataset
}
