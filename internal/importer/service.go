package importer

import (
	"fmt"
	"io"

	"github.com/skillancer/ledger/internal/importer/bankcsv"
	"github.com/skillancer/ledger/internal/unified"
)

type Service struct {
	bankCSV Importer
}

func NewService() *Service {
	return &Service{
		bankCSV: bankcsv.NewParser(),
	}
}

func (s *Service) Import(feed Feed, r io.Reader, currency string) ([]unified.SourceTransaction, error) {
	var importer Importer

	switch feed {
	case FeedBankCSV:
		importer = s.bankCSV
	default:
		return nil, fmt.Errorf("unknown feed: %s", feed)
	}

	return importer.Parse(r, currency)
}
