package converters

import (
	"fmt"
	"time"

	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/internal/models"
)

// ReportConverter 定义报表转换器接口
type ReportConverter interface {
	Convert(taskID string, report *aggregate.Report, meta ReportMetadata) (*ProcessedReport, error)
}

// ProcessedReport 定义处理后的报表结构
type ProcessedReport struct {
	TaskID      string                        `json:"taskId"`
	Status      string                        `json:"status"`
	Commodities []models.CommodityResultTable `json:"commodities"`
	Technology  models.LabeledResultTable     `json:"technology"`
	Hectare     models.LabeledResultTable     `json:"hectare"`
	Metadata    ReportMetadata                `json:"metadata"`
	ProcessedAt time.Time                     `json:"processedAt"`
}

// ReportMetadata 定义报表元数据
type ReportMetadata struct {
	FileName     string   `json:"fileName"`
	FileSize     int64    `json:"fileSize"`
	Participants int      `json:"participants"`
	Commodities  []string `json:"commodities"`
	Sheets       []string `json:"sheets"`
	ProcessingMs int64    `json:"processingMs"`
}

// JSONConverter 实现报表转换器
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(taskID string, report *aggregate.Report, meta ReportMetadata) (*ProcessedReport, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to convert")
	}

	doc := &ProcessedReport{
		TaskID:      taskID,
		Status:      string(models.StatusCompleted),
		Commodities: report.Commodities,
		Technology:  report.Technology,
		Hectare:     report.Hectare,
		Metadata:    meta,
		ProcessedAt: time.Now(),
	}
	if doc.Commodities == nil {
		doc.Commodities = []models.CommodityResultTable{}
	}

	// 补全元数据中的商品与工作表名称
	if len(doc.Metadata.Commodities) == 0 {
		for _, t := range report.Commodities {
			doc.Metadata.Commodities = append(doc.Metadata.Commodities, t.Name)
		}
	}
	if len(doc.Metadata.Sheets) == 0 {
		names := NewSheetNamer()
		for _, t := range report.Commodities {
			doc.Metadata.Sheets = append(doc.Metadata.Sheets, names.Name(t.Name))
		}
		doc.Metadata.Sheets = append(doc.Metadata.Sheets,
			names.Name(report.Technology.Name),
			names.Name(report.Hectare.Name),
		)
	}

	return doc, nil
}
