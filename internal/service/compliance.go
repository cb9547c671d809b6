package service

import (
	"strings"

	"stocklot/internal/models"
)

// PolicyEvaluator решает, допустим ли заказ по правилам комплаенса.
//
// Подключаемый интерфейс: дефолтная реализация работает на статических
// правилах, продуктовые правила (ветеринарные зоны, санкционные списки)
// подставляются без изменения флоу заказа.
type PolicyEvaluator interface {
	EvaluateOrder(req *models.BuyRequest, buyer *models.User, totals models.OrderTotals) error
}

// Пороги высокого риска: такие заказы требуют approved KYC покупателя
const (
	kycQtyThreshold   = 100
	kycValueThreshold = 5000000 // R50,000.00 в центах
)

// StaticPolicyEvaluator - правила на статической конфигурации.
//
// Disease control: провинции из blockedProvinces закрыты для перемещения
// живого скота (вспышка заболевания). KYC: высокорисковые заказы
// (живой/племенной скот, крупное поголовье, крупная сумма) требуют
// подтвержденного KYC.
type StaticPolicyEvaluator struct {
	blockedProvinces map[string]bool
}

// NewStaticPolicyEvaluator создает evaluator с перечнем закрытых провинций
func NewStaticPolicyEvaluator(blockedProvinces []string) *StaticPolicyEvaluator {
	blocked := make(map[string]bool, len(blockedProvinces))
	for _, p := range blockedProvinces {
		blocked[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return &StaticPolicyEvaluator{blockedProvinces: blocked}
}

// EvaluateOrder проверяет заказ перед созданием.
// Возвращает *DomainError с кодом DISEASE_BLOCK или KYC_REQUIRED.
func (e *StaticPolicyEvaluator) EvaluateOrder(req *models.BuyRequest, buyer *models.User, totals models.OrderTotals) error {
	if e.isLivestockMovement(req.ProductType) && e.blockedProvinces[strings.ToLower(req.Province)] {
		return NewDomainError(CodeDiseaseBlock, "livestock movement is restricted in "+req.Province)
	}

	if e.isHighRisk(req, totals) && buyer.KYCStatus != models.KYCStatusApproved {
		return NewDomainError(CodeKYCRequired, "order requires verified buyer identity")
	}

	return nil
}

// isLivestockMovement - перемещаются ли живые животные.
// Туши и убойный скот под disease control не попадают.
func (e *StaticPolicyEvaluator) isLivestockMovement(productType string) bool {
	return productType == models.ProductTypeLive || productType == models.ProductTypeBreeding
}

func (e *StaticPolicyEvaluator) isHighRisk(req *models.BuyRequest, totals models.OrderTotals) bool {
	if req.ProductType == models.ProductTypeLive || req.ProductType == models.ProductTypeBreeding {
		return true
	}
	if req.Qty > kycQtyThreshold {
		return true
	}
	return totals.GrandTotalCents > kycValueThreshold
}

var _ PolicyEvaluator = (*StaticPolicyEvaluator)(nil)
