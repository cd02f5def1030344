package application

import (
	"context"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/sale"
)

// SaleService は確定済み予約の販売記録を参照する
type SaleService struct {
	saleRepo sale.Repository
}

func NewSaleService(saleRepo sale.Repository) *SaleService {
	return &SaleService{saleRepo: saleRepo}
}

func (s *SaleService) GetSale(ctx context.Context, id string) (*sale.Sale, error) {
	return s.saleRepo.GetByID(ctx, id)
}

func (s *SaleService) ListUserSales(ctx context.Context, userID string, limit, offset int) ([]*sale.Sale, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.saleRepo.GetByUserID(ctx, userID, limit, offset)
}
