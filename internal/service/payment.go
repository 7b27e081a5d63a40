package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/lock"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	_paymentLockPrefix        = "payment:"
	_paymentIdempotencyPrefix = "charge:payment:"
)

type PaymentConfig struct {
	FeeRate    decimal.Decimal
	PaymentTTL time.Duration
	LockTTL    time.Duration
	Currency   string
}

// PaymentService drives QR payments from pending to a final state, charges cards and
// records wallet payments and peer transfers.
type PaymentService struct {
	payments  PaymentRepository
	transfers TransferRepository
	identity  *IdentityService
	ledger    *LedgerService
	otp       *OTPService
	processor CardProcessor
	locker    lock.Locker
	locator   *Locator
	metrics   metric.Payments
	cfg       PaymentConfig
	log       logger.Logger
	opts      options
}

func NewPaymentService(
	payments PaymentRepository,
	transfers TransferRepository,
	identity *IdentityService,
	ledger *LedgerService,
	otp *OTPService,
	processor CardProcessor,
	locker lock.Locker,
	locator *Locator,
	metrics metric.Payments,
	cfg PaymentConfig,
	log logger.Logger,
	opts ...Option,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		transfers: transfers,
		identity:  identity,
		ledger:    ledger,
		otp:       otp,
		processor: processor,
		locker:    locker,
		locator:   locator,
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
		opts:      newOptions(opts),
	}
}

func (s *PaymentService) PaymentOptions() []entity.PaymentOption {
	return entity.WalletOptions()
}

// CreatePayment opens a pending payment that expires after the configured TTL. VendorID may
// be nil for platform-issued payments.
func (s *PaymentService) CreatePayment(ctx context.Context, req entity.PaymentRequest) (*entity.Payment, error) {
	const op = "service.CreatePayment"
	log := s.log.Ctx(ctx)
	start := time.Now()
	defer warnIfSlow(ctx, log, op, start)

	if !entity.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAmount)
	}
	if err := validateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	description := req.Description
	if req.VendorID != nil {
		vendor, err := s.identity.GetVendor(ctx, *req.VendorID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if description == "" {
			description = "Payment to " + vendor.BusinessName
		}
	}

	id := uuid.New()
	url, qr, err := s.locator.Render(ctx, s.locator.PaymentURL(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.now().UTC()
	payment := &entity.Payment{
		ID:          id,
		VendorID:    req.VendorID,
		Amount:      req.Amount,
		Currency:    normalizeCurrency(req.Currency, s.cfg.Currency),
		Description: description,
		Status:      entity.PaymentPending,
		PaymentURL:  url,
		QRCode:      qr,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.PaymentTTL),
	}

	if err = s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("%s: create payment: %w", op, err)
	}

	s.metrics.PaymentCreated(payment.Currency)

	log.LogAttrs(ctx, logger.InfoLevel, "payment created",
		logger.String("op", op),
		logger.String("payment_id", payment.ID.String()),
		logger.String("amount", payment.Amount.StringFixed(2)),
		logger.Time("expires_at", payment.ExpiresAt),
	)

	return payment, nil
}

// GetPayment moves an overdue pending payment to expired before returning it.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	const op = "service.GetPayment"

	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if payment.Status == entity.PaymentPending && payment.ExpiredAt(s.opts.now()) {
		payment, err = s.expire(ctx, payment)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return payment, nil
}

// ChargeCard charges methodRef for a pending payment. Only one charge per payment may be in
// flight; a concurrent attempt fails with ErrPaymentLocked instead of waiting.
func (s *PaymentService) ChargeCard(ctx context.Context, id uuid.UUID, methodRef string) (*entity.Payment, error) {
	const op = "service.ChargeCard"
	log := s.log.Ctx(ctx)
	start := time.Now()
	defer warnIfSlow(ctx, log, op, start, logger.String("payment_id", id.String()))

	methodRef = strings.TrimSpace(methodRef)
	if methodRef == "" {
		return nil, fmt.Errorf("%s: payment method is required: %w", op, entity.ErrInvalidData)
	}

	ctx, span := s.opts.tracer.Start(ctx, "payment.charge_card",
		trace.WithAttributes(attribute.String("payment.id", id.String())))
	defer span.End()

	unlock, err := s.locker.TryLock(ctx, _paymentLockPrefix+id.String(), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrPaymentLocked)
		}
		return nil, fmt.Errorf("%s: acquire lock: %w", op, err)
	}
	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			log.LogAttrs(ctx, logger.WarnLevel, "payment lock release failed",
				logger.String("op", op),
				logger.String("payment_id", id.String()),
				logger.Err(unlockErr),
			)
		}
	}()

	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch payment.Status {
	case entity.PaymentCompleted:
		return nil, fmt.Errorf("%s: %w", op, entity.ErrAlreadyFinalized)
	case entity.PaymentExpired:
		return nil, fmt.Errorf("%s: %w", op, entity.ErrPaymentExpired)
	}

	if payment.ExpiredAt(s.opts.now()) {
		if _, err = s.expire(ctx, payment); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, entity.ErrPaymentExpired)
	}

	metadata := map[string]string{"payment_id": payment.ID.String()}
	if payment.VendorID != nil {
		metadata["vendor_id"] = payment.VendorID.String()
	}

	result, err := s.charge(ctx, entity.ChargeRequest{
		AmountMinor: entity.MinorUnits(payment.Amount),
		Currency:    payment.Currency,
		MethodRef:   methodRef,
		Description: payment.Description,
		Metadata:    metadata,

		IdempotencyKey: _paymentIdempotencyPrefix + payment.ID.String() + ":" + methodRef,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "charge failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.now().UTC()
	completed := *payment
	completed.Status = entity.PaymentCompleted
	completed.Channel = entity.ChannelCard
	completed.ChargeRef = result.ExternalID
	completed.CompletedAt = &now

	txn := s.vendorTransaction(entity.KindPayment, payment.VendorID, payment.Amount, now)
	txn.PaymentID = &completed.ID
	txn.Currency = completed.Currency
	txn.Channel = entity.ChannelCard
	txn.Description = completed.Description
	txn.ChargeRef = result.ExternalID

	if err = s.payments.Complete(ctx, &completed, txn); err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "charged payment could not be completed",
			logger.String("op", op),
			logger.String("payment_id", id.String()),
			logger.String("charge_ref", result.ExternalID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: complete payment: %w", op, err)
	}

	s.ledger.Recorded(ctx, txn)
	s.metrics.PaymentCompleted(string(entity.ChannelCard))

	log.LogAttrs(ctx, logger.InfoLevel, "payment completed",
		logger.String("op", op),
		logger.String("payment_id", id.String()),
		logger.String("transaction_id", txn.ID.String()),
	)

	return &completed, nil
}

// ChargeWithSavedInstrument charges a customer's saved card off-session for a vendor.
func (s *PaymentService) ChargeWithSavedInstrument(
	ctx context.Context,
	req entity.SavedCardCharge,
) (*entity.Transaction, error) {
	const op = "service.ChargeWithSavedInstrument"
	log := s.log.Ctx(ctx)

	if !entity.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAmount)
	}
	if err := validateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vendor, err := s.identity.GetVendor(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customer, err := s.identity.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := customer.Instrument(req.PaymentMethod); !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInstrumentNotFound)
	}

	description := req.Description
	if description == "" {
		description = "Payment to " + vendor.BusinessName
	}
	currency := normalizeCurrency(req.Currency, s.cfg.Currency)

	result, err := s.charge(ctx, entity.ChargeRequest{
		AmountMinor: entity.MinorUnits(req.Amount),
		Currency:    currency,
		MethodRef:   req.PaymentMethod,
		CustomerRef: customer.BillingProfileID,
		Description: description,
		OffSession:  true,
		Metadata: map[string]string{
			"vendor_id":   vendor.ID.String(),
			"customer_id": customer.ID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txn := s.vendorTransaction(entity.KindSavedCard, &vendor.ID, req.Amount, s.opts.now().UTC())
	txn.CustomerID = &customer.ID
	txn.Currency = currency
	txn.Channel = entity.ChannelCard
	txn.Description = description
	txn.PayerName = customer.Name
	txn.PayerPhone = customer.Phone
	txn.ChargeRef = result.ExternalID

	if err = s.ledger.Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.PaymentCompleted(string(entity.ChannelCard))

	log.LogAttrs(ctx, logger.InfoLevel, "saved card charged",
		logger.String("op", op),
		logger.String("vendor_id", vendor.ID.String()),
		logger.String("customer_id", customer.ID.String()),
		logger.String("transaction_id", txn.ID.String()),
	)

	return txn, nil
}

// CreateDirectVendorPayment charges a card for a vendor's permanent QR code without opening
// a payment request.
func (s *PaymentService) CreateDirectVendorPayment(
	ctx context.Context,
	req entity.CardCharge,
) (*entity.Transaction, error) {
	const op = "service.CreateDirectVendorPayment"

	if !entity.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAmount)
	}
	if err := validateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vendor, err := s.identity.GetVendor(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	description := req.Description
	if description == "" {
		description = "Payment to " + vendor.BusinessName
	}
	currency := normalizeCurrency(req.Currency, s.cfg.Currency)

	result, err := s.charge(ctx, entity.ChargeRequest{
		AmountMinor: entity.MinorUnits(req.Amount),
		Currency:    currency,
		MethodRef:   req.PaymentMethod,
		Description: description,
		Metadata:    map[string]string{"vendor_id": vendor.ID.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txn := s.vendorTransaction(entity.KindDirect, &vendor.ID, req.Amount, s.opts.now().UTC())
	txn.Currency = currency
	txn.Channel = entity.ChannelCard
	txn.Description = description
	txn.ChargeRef = result.ExternalID

	if err = s.ledger.Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.PaymentCompleted(string(entity.ChannelCard))
	return txn, nil
}

// CreateWalletPayment records a simulated wallet payment to a vendor or a user. No funds move;
// the entry completes immediately and a cash-out code goes to the payer's phone if given.
// Only vendor payees pay the platform fee.
func (s *PaymentService) CreateWalletPayment(
	ctx context.Context,
	req entity.WalletPayment,
) (*entity.WalletReceipt, error) {
	const op = "service.CreateWalletPayment"
	log := s.log.Ctx(ctx)

	if !entity.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAmount)
	}
	if !req.Option.IsWallet() {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidChannel)
	}
	if err := validateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.now().UTC()
	var txn *entity.Transaction

	vendor, err := s.identity.GetVendor(ctx, req.PayeeID)
	switch {
	case err == nil:
		txn = s.vendorTransaction(entity.KindWallet, &vendor.ID, req.Amount, now)
	case errors.Is(err, entity.ErrDataNotFound):
		user, userErr := s.identity.ResolveUser(ctx, req.PayeeID)
		if userErr != nil {
			if errors.Is(userErr, entity.ErrDataNotFound) {
				return nil, fmt.Errorf("%s: no vendor or user %s: %w", op, req.PayeeID, entity.ErrDataNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, userErr)
		}
		txn = s.newTransaction(entity.KindWallet, req.Amount, now)
		txn.UserID = &user.ID
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txn.Currency = normalizeCurrency(req.Currency, s.cfg.Currency)
	txn.Channel = req.Option
	txn.Description = req.Description
	txn.PayerName = req.PayerName
	txn.PayerPhone = req.PayerPhone

	if err = s.ledger.Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.PaymentCompleted(string(req.Option))

	receipt := &entity.WalletReceipt{Transaction: txn}
	receipt.OTP = s.issueCashoutCode(ctx, op, req.PayerPhone)

	log.LogAttrs(ctx, logger.InfoLevel, "wallet payment recorded",
		logger.String("op", op),
		logger.String("transaction_id", txn.ID.String()),
		logger.String("option", string(req.Option)),
	)

	return receipt, nil
}

// TransferToUser records a peer transfer. Transfers carry no platform fee.
func (s *PaymentService) TransferToUser(ctx context.Context, req entity.TransferRequest) (*entity.Transfer, error) {
	const op = "service.TransferToUser"
	log := s.log.Ctx(ctx)

	if !entity.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAmount)
	}
	if !req.Option.IsWallet() {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidChannel)
	}
	if err := validateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.identity.ResolveUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.now().UTC()
	transfer := &entity.Transfer{
		ID:          uuid.New(),
		UserID:      user.ID,
		UserName:    user.Name,
		UserPhone:   user.Phone,
		Amount:      req.Amount,
		Currency:    normalizeCurrency(req.Currency, s.cfg.Currency),
		Note:        req.Note,
		SenderName:  req.SenderName,
		SenderPhone: req.SenderPhone,
		Status:      entity.TransferCompleted,
		Option:      req.Option,
		CreatedAt:   now,
	}

	txn := s.newTransaction(entity.KindTransfer, req.Amount, now)
	txn.TransferID = &transfer.ID
	txn.UserID = &user.ID
	txn.Currency = transfer.Currency
	txn.Channel = req.Option
	txn.Description = req.Note
	txn.PayerName = req.SenderName
	txn.PayerPhone = req.SenderPhone

	if err = s.transfers.Create(ctx, transfer, txn); err != nil {
		return nil, fmt.Errorf("%s: create transfer: %w", op, err)
	}
	s.ledger.Recorded(ctx, txn)

	transfer.OTP = s.issueCashoutCode(ctx, op, req.SenderPhone)

	log.LogAttrs(ctx, logger.InfoLevel, "transfer recorded",
		logger.String("op", op),
		logger.String("transfer_id", transfer.ID.String()),
		logger.String("user_id", user.ID.String()),
	)

	return transfer, nil
}

func (s *PaymentService) load(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, entity.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) expire(ctx context.Context, payment *entity.Payment) (*entity.Payment, error) {
	err := s.payments.Expire(ctx, payment.ID)
	switch {
	case err == nil:
		expired := *payment
		expired.Status = entity.PaymentExpired
		s.metrics.PaymentExpired()
		s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "payment expired",
			logger.String("payment_id", payment.ID.String()),
		)
		return &expired, nil
	case errors.Is(err, entity.ErrAlreadyFinalized):
		// finalized by someone else in between; report what is stored now
		return s.load(ctx, payment.ID)
	default:
		return nil, fmt.Errorf("expire payment: %w", err)
	}
}

func (s *PaymentService) charge(ctx context.Context, req entity.ChargeRequest) (*entity.ChargeResult, error) {
	result, err := s.processor.Charge(ctx, req)
	if err != nil {
		reason := "external"
		if errors.Is(err, entity.ErrChargeDeclined) {
			reason = "declined"
		}
		s.metrics.ChargeFailed(string(entity.ChannelCard), reason)
		s.log.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "card charge failed",
			logger.String("reason", reason),
			logger.Int64("amount_minor", req.AmountMinor),
			logger.Err(err),
		)
		return nil, err
	}
	return result, nil
}

// issueCashoutCode never fails the caller: a code that cannot be issued is logged and omitted.
func (s *PaymentService) issueCashoutCode(ctx context.Context, op, phone string) *entity.OTPDispatch {
	if strings.TrimSpace(phone) == "" {
		return nil
	}
	dispatch, err := s.otp.Issue(ctx, phone, entity.PurposeCashout)
	if err != nil {
		s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "cash-out code not issued",
			logger.String("op", op),
			logger.String("phone", entity.MaskPhone(phone)),
			logger.Err(err),
		)
		return &entity.OTPDispatch{PhoneMasked: entity.MaskPhone(phone)}
	}
	return dispatch
}

func (s *PaymentService) newTransaction(
	kind entity.TransactionKind,
	amount decimal.Decimal,
	at time.Time,
) *entity.Transaction {
	return &entity.Transaction{
		ID:        uuid.New(),
		Kind:      kind,
		Amount:    amount,
		Status:    entity.TransactionCompleted,
		CreatedAt: at,
	}
}

// vendorTransaction splits the platform fee off when the entry belongs to a vendor.
func (s *PaymentService) vendorTransaction(
	kind entity.TransactionKind,
	vendorID *uuid.UUID,
	amount decimal.Decimal,
	at time.Time,
) *entity.Transaction {
	txn := s.newTransaction(kind, amount, at)
	if vendorID == nil {
		return txn
	}
	fee, net := SplitFee(amount, s.cfg.FeeRate)
	txn.VendorID = vendorID
	txn.PlatformFee = decimal.NewNullDecimal(fee)
	txn.VendorAmount = decimal.NewNullDecimal(net)
	return txn
}
