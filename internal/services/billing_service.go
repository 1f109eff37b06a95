package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
	checkoutsession "github.com/stripe/stripe-go/v72/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v72/customer"

	"controlia/internal/config"
	"controlia/internal/models"
	"controlia/internal/nats"
	"controlia/internal/repository"
)

// BillingService integrates with the payment processor: checkout
// sessions for plan subscriptions and the webhook state machine that
// keeps tenant status in sync with billing state.
type BillingService struct {
	tenantRepo   *repository.TenantRepository
	planRepo     *repository.PlanRepository
	auditService *AuditService
	events       *nats.Client
	publicAppURL string
	logger       *logrus.Logger
}

// NewBillingService creates a new billing service and sets the global
// processor API key, built once at startup.
func NewBillingService(
	cfg *config.Config,
	tenantRepo *repository.TenantRepository,
	planRepo *repository.PlanRepository,
	auditService *AuditService,
	events *nats.Client,
	logger *logrus.Logger,
) *BillingService {
	stripe.Key = cfg.Stripe.SecretKey
	return &BillingService{
		tenantRepo:   tenantRepo,
		planRepo:     planRepo,
		auditService: auditService,
		events:       events,
		publicAppURL: cfg.App.PublicAppURL,
		logger:       logger,
	}
}

// CreateCheckoutSession starts a subscription checkout for the
// tenant's chosen plan and returns the hosted payment URL.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, actor *models.Profile, tenant *models.Tenant, planID uuid.UUID) (string, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return "", &NotFoundError{Message: "Plano não encontrado"}
	}
	if !plan.Active || plan.StripePriceID == "" {
		return "", &ValidationError{Message: "Plano não disponível para contratação online"}
	}

	customerID, err := s.ensureCustomer(ctx, tenant)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(plan.StripePriceID), Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.publicAppURL + "/billing?status=sucesso"),
		CancelURL:  stripe.String(s.publicAppURL + "/billing?status=cancelado"),
	}
	params.AddMetadata("empresa_id", tenant.ID.String())
	params.AddMetadata("plano_id", plan.ID.String())

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.auditService.Record(ctx, &tenant.ID, &actor.ID, "billing.checkout", "plano", plan.ID.String(), map[string]interface{}{
		"plano": plan.Name,
	})
	return sess.URL, nil
}

// ensureCustomer returns the tenant's processor customer id, creating
// the customer on first use and persisting the id.
func (s *BillingService) ensureCustomer(ctx context.Context, tenant *models.Tenant) (string, error) {
	if tenant.StripeCustomerID != "" {
		return tenant.StripeCustomerID, nil
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(tenant.Email),
		Name:  stripe.String(tenant.Name),
	}
	params.AddMetadata("empresa_id", tenant.ID.String())
	cust, err := customerpkg.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	tenant.StripeCustomerID = cust.ID
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// HandleEvent applies one verified webhook event to tenant state.
// Signature verification happens in the handler before this is called;
// unhandled event types are ignored.
func (s *BillingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	s.logger.WithField("event_type", event.Type).Info("Billing event received")

	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return &ValidationError{Message: "Evento de pagamento inválido"}
		}
		return s.handleCheckoutCompleted(ctx, &cs)

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return &ValidationError{Message: "Evento de pagamento inválido"}
		}
		return s.setStatusByCustomer(ctx, invoiceCustomerID(&inv), models.TenantStatusActive, "billing.fatura_paga")

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return &ValidationError{Message: "Evento de pagamento inválido"}
		}
		return s.setStatusByCustomer(ctx, invoiceCustomerID(&inv), models.TenantStatusOverdue, "billing.pagamento_falhou")

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return &ValidationError{Message: "Evento de pagamento inválido"}
		}
		return s.setStatusByCustomer(ctx, subscriptionCustomerID(&sub), models.TenantStatusSuspended, "billing.assinatura_cancelada")

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return &ValidationError{Message: "Evento de pagamento inválido"}
		}
		return s.handleSubscriptionUpdated(ctx, &sub)
	}

	return nil
}

func (s *BillingService) handleCheckoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	tenant, err := s.resolveTenant(ctx, cs.Metadata["empresa_id"], checkoutCustomerID(cs))
	if err != nil {
		return err
	}

	if cs.Customer != nil {
		tenant.StripeCustomerID = cs.Customer.ID
	}
	if cs.Subscription != nil {
		tenant.StripeSubscriptionID = cs.Subscription.ID
	}
	if planID := cs.Metadata["plano_id"]; planID != "" {
		if id, err := uuid.Parse(planID); err == nil {
			tenant.PlanID = &id
		}
	}
	tenant.Status = models.TenantStatusActive
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return err
	}

	s.recordBillingChange(ctx, tenant, "billing.checkout_concluido", map[string]interface{}{
		"status": tenant.Status,
	})
	return nil
}

// handleSubscriptionUpdated syncs the tenant's plan with the
// subscription's current price.
func (s *BillingService) handleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	tenant, err := s.resolveTenant(ctx, "", subscriptionCustomerID(sub))
	if err != nil {
		return err
	}

	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return nil
	}
	plan, err := s.planRepo.GetByStripePriceID(ctx, sub.Items.Data[0].Price.ID)
	if err != nil {
		return err
	}
	if plan == nil || (tenant.PlanID != nil && *tenant.PlanID == plan.ID) {
		return nil
	}

	tenant.PlanID = &plan.ID
	tenant.StripeSubscriptionID = sub.ID
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return err
	}
	s.recordBillingChange(ctx, tenant, "billing.plano_sincronizado", map[string]interface{}{
		"plano": plan.Name,
	})
	return nil
}

func (s *BillingService) setStatusByCustomer(ctx context.Context, customerID, status, action string) error {
	tenant, err := s.resolveTenant(ctx, "", customerID)
	if err != nil {
		return err
	}
	if tenant.Status == status {
		return nil
	}
	previous := tenant.Status
	if err := s.tenantRepo.UpdateStatus(ctx, tenant.ID, status); err != nil {
		return err
	}
	tenant.Status = status
	s.recordBillingChange(ctx, tenant, action, map[string]interface{}{
		"de":   previous,
		"para": status,
	})
	return nil
}

// resolveTenant finds the tenant a billing event refers to, preferring
// the empresa_id metadata set at checkout.
func (s *BillingService) resolveTenant(ctx context.Context, metadataID, customerID string) (*models.Tenant, error) {
	if metadataID != "" {
		if id, err := uuid.Parse(metadataID); err == nil {
			tenant, err := s.tenantRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if tenant != nil {
				return tenant, nil
			}
		}
	}
	if customerID == "" {
		return nil, &NotFoundError{Message: "Empresa não encontrada para o evento de pagamento"}
	}
	tenant, err := s.tenantRepo.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, &NotFoundError{Message: "Empresa não encontrada para o evento de pagamento"}
	}
	return tenant, nil
}

func (s *BillingService) recordBillingChange(ctx context.Context, tenant *models.Tenant, action string, details map[string]interface{}) {
	s.auditService.Record(ctx, &tenant.ID, nil, action, "empresa", tenant.ID.String(), details)
	payload := map[string]interface{}{"empresa_id": tenant.ID, "acao": action}
	for k, v := range details {
		payload[k] = v
	}
	s.events.Publish(nats.SubjectBillingEvent, payload)
}

func checkoutCustomerID(cs *stripe.CheckoutSession) string {
	if cs.Customer == nil {
		return ""
	}
	return cs.Customer.ID
}

func invoiceCustomerID(inv *stripe.Invoice) string {
	if inv.Customer == nil {
		return ""
	}
	return inv.Customer.ID
}

func subscriptionCustomerID(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}
