package handler

import (
	"bytes"
	"net/http"
	"regexp"
	"strings"

	"github.com/dailykpi/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = buildReportSanitizer()

	checkboxTypePattern = regexp.MustCompile(`^checkbox$`)
)

// buildReportSanitizer 在 UGC 策略基础上保留 GFM 任务列表的勾选框
func buildReportSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("input")
	policy.AllowAttrs("type").Matching(checkboxTypePattern).OnElements("input")
	policy.AllowAttrs("checked", "disabled").OnElements("input")
	return policy
}

func renderMarkdown(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return nil, err
	}
	return sanitizer.SanitizeBytes(buf.Bytes()), nil
}

// GetReport 生成区间报告，format=markdown 返回原文，默认返回净化后的 HTML
func (a *API) GetReport(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}
	period, ok := parseForecastPeriod(c)
	if !ok {
		return
	}

	overview, err := a.analytics.Overview(start, end, period)
	if err != nil {
		handleServiceError(c, err, "生成报告失败")
		return
	}

	markdown := service.BuildReportMarkdown(overview)

	switch strings.ToLower(c.DefaultQuery("format", "html")) {
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(markdown))
	case "html":
		rendered, err := renderMarkdown(markdown)
		if err != nil {
			handleServiceError(c, err, "渲染报告失败")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", rendered)
	default:
		respondError(c, http.StatusBadRequest, "format 只支持 html 或 markdown")
	}
}
