package workflow

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// Effect is a side effect an edge declares. The executor applies effects in
// declaration order inside the transition's unit of work.
type Effect string

const (
	// EffectDeductStock deducts the order's retail lines from tenant stock.
	EffectDeductStock Effect = "deduct_stock"
	// EffectCreatePackingList generates the packing list document.
	EffectCreatePackingList Effect = "create_packing_list"
	// EffectCreateDeliveryVoucher generates the delivery voucher document.
	EffectCreateDeliveryVoucher Effect = "create_delivery_voucher"
	// EffectNotifyCustomer enqueues a customer notification in the outbox.
	EffectNotifyCustomer Effect = "notify_customer"
	// EffectDispatchWebhook enqueues a tenant webhook call in the outbox.
	EffectDispatchWebhook Effect = "dispatch_webhook"
)

func knownEffects() map[Effect]struct{} {
	return map[Effect]struct{}{
		EffectDeductStock:           {},
		EffectCreatePackingList:     {},
		EffectCreateDeliveryVoucher: {},
		EffectNotifyCustomer:        {},
		EffectDispatchWebhook:       {},
	}
}

func (e Effect) Validate() error {
	if _, ok := knownEffects()[e]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("effect", fmt.Errorf("%q is not a known effect", string(e)))
	}
	return nil
}

// Outboxed reports whether the effect cannot join the database transaction and
// is therefore delivered through the outbox.
func (e Effect) Outboxed() bool {
	return e == EffectNotifyCustomer || e == EffectDispatchWebhook
}
