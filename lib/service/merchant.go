package service

import (
	"context"

	"github.com/stackpay/stackpay.go/db/models"
)

func (svc *StackpayService) CreateMerchant(ctx context.Context, principal, name, webhookUrl string) (*models.Merchant, error) {
	merchant := &models.Merchant{
		Principal:  principal,
		Name:       name,
		WebhookUrl: webhookUrl,
	}
	_, err := svc.DB.NewInsert().Model(merchant).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return merchant, nil
}

func (svc *StackpayService) FindMerchant(ctx context.Context, principal string) (*models.Merchant, error) {
	var merchant models.Merchant
	err := svc.DB.NewSelect().Model(&merchant).Where("principal = ?", principal).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (svc *StackpayService) WebhookLogsFor(ctx context.Context, merchantPrincipal string, limit int) ([]models.WebhookLog, error) {
	logs := []models.WebhookLog{}
	err := svc.DB.NewSelect().Model(&logs).
		Where("merchant_id = ?", merchantPrincipal).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
