// Package export renders priced versions as client proposals and internal budgets.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/service"
)

// Kind selects the audience of an export.
type Kind string

const (
	KindClient   Kind = "client"
	KindInternal Kind = "internal"
)

// Format selects the file format of an export.
type Format string

const (
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupported = errors.New("unsupported export")

const dateLayout = "2 January 2006"

// ParseKind reads an export kind, defaulting to the client proposal.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindClient:
		return KindClient, nil
	case KindInternal:
		return KindInternal, nil
	}
	return "", fmt.Errorf("%w: type %q", ErrUnsupported, s)
}

// ParseFormat reads an export format, defaulting to text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: format %q", ErrUnsupported, s)
}

// FileName builds the download name from the client and project names.
func FileName(p domain.Project, kind Kind, format Format) string {
	base := domain.GenerateSlug(p.ClientName, p.ProjectName)
	ext := ".txt"
	if format == FormatXLSX {
		ext = ".xlsx"
	}
	if kind == KindInternal {
		return base + "-internal-budget" + ext
	}
	return base + "-proposal" + ext
}

// ContentType is the MIME type served for a format.
func ContentType(format Format) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/plain; charset=utf-8"
}

// Write renders b in the requested kind and format. Client proposals are text only.
func Write(w io.Writer, b *service.Budget, kind Kind, format Format) error {
	switch {
	case kind == KindClient && format == FormatText:
		return ClientProposal(w, b)
	case kind == KindInternal && format == FormatText:
		return InternalBudget(w, b)
	case kind == KindInternal && format == FormatXLSX:
		return InternalBudgetXLSX(w, b)
	}
	return fmt.Errorf("%w: %s as %s", ErrUnsupported, kind, format)
}

func header(b *service.Budget) string {
	line := b.VersionDate.Format(dateLayout)
	if b.VersionName != "" {
		line += "  ·  " + b.VersionName
	}
	return line
}
