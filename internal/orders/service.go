package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers the customer and back-office views of placed orders.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.CursorResult[OrderDTO], error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderDTO, error)
	AdminList(ctx context.Context, input AdminListInput) (pagination.Result[OrderDTO], error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	GetHistory(ctx context.Context, orderID uuid.UUID) ([]HistoryDTO, error)
}

type AdminListInput struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
	Search string
	Page   pagination.Page
}

// UpdateStatusInput is an admin status change.
type UpdateStatusInput struct {
	AdminID        uuid.UUID
	OrderID        uuid.UUID
	Status         enums.OrderStatus
	Comment        string
	NotifyCustomer bool
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repository *Repository
	Products   *products.Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Logger     *logger.Logger
}

type service struct {
	repo     *Repository
	products *products.Repository
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     params.Repository,
		products: params.Products,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.CursorResult[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return pagination.CursorResult[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, cursor, params.Limit)
	if err != nil {
		return pagination.CursorResult[OrderDTO]{}, repo.Classify(err, "", "list orders")
	}
	page := pagination.NewCursorResult(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	items := make([]OrderDTO, 0, len(page.Items))
	for _, o := range page.Items {
		items = append(items, ToDTO(o))
	}
	return pagination.CursorResult[OrderDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// GetMine hides other users' orders behind NOT_FOUND.
func (s *service) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err != nil {
		return nil, repo.Classify(err, "order not found", "load order")
	}
	dto := ToDTO(*order)
	return &dto, nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	reason = strings.TrimSpace(reason)
	comment := "Cancelled by customer"
	if reason != "" {
		comment = "Cancelled by customer: " + reason
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindOwned(ctx, userID, orderID)
		if err != nil {
			return repo.Classify(err, "order not found", "load order")
		}
		_, err = s.transition(ctx, tx, order, transitionRequest{
			to:      enums.OrderStatusCancelled,
			actor:   &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer},
			comment: comment,
			reason:  reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logStatus(ctx, orderID, enums.OrderStatusCancelled)
	return s.GetMine(ctx, userID, orderID)
}

func (s *service) AdminList(ctx context.Context, input AdminListInput) (pagination.Result[OrderDTO], error) {
	page := input.Page.Normalize()
	if input.Status != nil && !input.Status.IsValid() {
		return pagination.Result[OrderDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", *input.Status)
	}
	rows, total, err := s.repo.ListAll(ctx, AdminFilter{
		Status: input.Status,
		UserID: input.UserID,
		Search: strings.ToUpper(strings.TrimSpace(input.Search)),
		Page:   page,
	})
	if err != nil {
		return pagination.Result[OrderDTO]{}, repo.Classify(err, "", "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for _, o := range rows {
		items = append(items, ToDTO(o))
	}
	return pagination.NewResult(items, page, total), nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, repo.Classify(err, "order not found", "load order")
	}
	dto := ToDTO(*order)
	return &dto, nil
}

// UpdateStatus applies an admin transition through the same table as the
// customer cancel path and always emits order_status_changed.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", input.Status)
	}
	comment := strings.TrimSpace(input.Comment)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			return repo.Classify(err, "order not found", "load order")
		}
		actor := &outbox.ActorRef{UserID: input.AdminID, Role: enums.UserRoleAdmin}
		from := order.Status
		payment, err := s.transition(ctx, tx, order, transitionRequest{
			to:      input.Status,
			actor:   actor,
			comment: comment,
			reason:  comment,
			notify:  input.NotifyCustomer,
		})
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				From:           from,
				To:             input.Status,
				PaymentStatus:  payment,
				Comment:        comment,
				NotifyCustomer: input.NotifyCustomer,
				ChangedBy:      input.AdminID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logStatus(ctx, input.OrderID, input.Status)
	return s.AdminGet(ctx, input.OrderID)
}

func (s *service) GetHistory(ctx context.Context, orderID uuid.UUID) ([]HistoryDTO, error) {
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		return nil, repo.Classify(err, "order not found", "load order")
	}
	rows, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, repo.Classify(err, "", "list order history")
	}
	return toHistoryDTOs(rows), nil
}

type transitionRequest struct {
	to      enums.OrderStatus
	actor   *outbox.ActorRef
	comment string
	reason  string
	notify  bool
}

// transition performs a guarded status move inside tx: status update, stock
// restoration on cancel, one history row and the cancellation event. It
// returns the resulting payment status.
func (s *service) transition(ctx context.Context, tx *gorm.DB, order *models.Order, req transitionRequest) (enums.PaymentStatus, error) {
	from := order.Status
	if err := checkTransition(from, req.to); err != nil {
		return "", err
	}

	txRepo := s.repo.WithTx(tx)
	payment := paymentAfter(req.to, order.PaymentMethod, order.PaymentStatus)
	moved, err := txRepo.TransitionStatus(ctx, order.ID, from, req.to, payment)
	if err != nil {
		return "", repo.Classify(err, "", "update order status")
	}
	if !moved {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	var restored []payloads.ItemQuantity
	if req.to == enums.OrderStatusCancelled {
		restored, err = s.restoreStock(ctx, tx, order.Items)
		if err != nil {
			return "", err
		}
	}

	var comment *string
	if req.comment != "" {
		comment = &req.comment
	}
	var createdBy *uuid.UUID
	if req.actor != nil {
		createdBy = &req.actor.UserID
	}
	if err := txRepo.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:        order.ID,
		Status:         req.to,
		Comment:        comment,
		NotifyCustomer: req.notify,
		CreatedBy:      createdBy,
	}); err != nil {
		return "", repo.Classify(err, "", "append order history")
	}

	if req.to == enums.OrderStatusCancelled {
		if restored == nil {
			restored = []payloads.ItemQuantity{}
		}
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         req.actor,
			Data: payloads.OrderCancelledEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				PreviousState: from,
				Reason:        req.reason,
				RestoredItems: restored,
				CancelledAt:   time.Now().UTC(),
			},
		})
		if err != nil {
			return "", err
		}
	}

	order.Status = req.to
	order.PaymentStatus = payment
	return payment, nil
}

// restoreStock returns exactly the units placement took. Items whose product
// was deleted are skipped.
func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) ([]payloads.ItemQuantity, error) {
	txRepo := s.repo.WithTx(tx)
	productRepo := s.products.WithTx(tx)
	var restored []payloads.ItemQuantity
	for _, item := range items {
		if !item.StockDecremented || item.ProductID == nil {
			continue
		}
		ok, err := productRepo.RestoreStock(ctx, *item.ProductID, item.Quantity)
		if err != nil {
			return nil, repo.Classify(err, "", "restore stock")
		}
		if err := txRepo.ClearStockDecremented(ctx, item.ID); err != nil {
			return nil, repo.Classify(err, "", "mark stock restored")
		}
		if ok {
			restored = append(restored, payloads.ItemQuantity{ProductID: *item.ProductID, Quantity: item.Quantity})
		}
	}
	return restored, nil
}

func (s *service) logStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(s.logg.WithField(ctx, "status", status), "order status changed")
}
