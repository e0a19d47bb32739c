package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// AccountUseCase handles the account lifecycle.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	ibanGen     IDGenerator
	owners      UserLookup
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// AccountOption configures optional AccountUseCase collaborators.
type AccountOption func(*AccountUseCase)

// WithAccountMetrics records lifecycle metrics.
func WithAccountMetrics(m *metrics.Metrics) AccountOption {
	return func(uc *AccountUseCase) { uc.metrics = m }
}

// WithAccountLogger sets the lifecycle logger.
func WithAccountLogger(l zerolog.Logger) AccountOption {
	return func(uc *AccountUseCase) { uc.logger = l }
}

// WithOwnerLookup requires account owners to be registered users.
func WithOwnerLookup(l UserLookup) AccountOption {
	return func(uc *AccountUseCase) { uc.owners = l }
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	ibanGen IDGenerator,
	opts ...AccountOption,
) *AccountUseCase {
	uc := &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		ibanGen:     ibanGen,
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateRootAccountInput represents input for opening a main account.
type CreateRootAccountInput struct {
	Name     string
	Currency string
	BIC      string
	OwnerID  string
}

// CreateRootAccount opens a current account with a zero balance.
func (uc *AccountUseCase) CreateRootAccount(ctx context.Context, input CreateRootAccountInput) (*domain.Account, error) {
	if strings.TrimSpace(input.Currency) != "" {
		if _, err := domain.ParseCurrency(input.Currency); err != nil {
			return nil, err
		}
	}

	if err := domain.ValidateAccountFields(domain.AccountFields{
		Name:     input.Name,
		Currency: input.Currency,
		BIC:      input.BIC,
	}); err != nil {
		return nil, err
	}

	currency, err := domain.ParseCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	if err := uc.checkOwner(ctx, input.OwnerID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()

	account := &domain.Account{
		IBAN:      uc.ibanGen.Generate(),
		Name:      strings.TrimSpace(input.Name),
		BIC:       strings.TrimSpace(input.BIC),
		Currency:  currency,
		Type:      domain.AccountTypeCurrent,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.OwnerID != "" {
		owner := input.OwnerID
		account.OwnerID = &owner
	}

	if err := uc.create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (uc *AccountUseCase) checkOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" || uc.owners == nil {
		return nil
	}
	owner, err := uc.owners.GetByID(ctx, ownerID)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && !owner.Active) {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "ownerId", Message: "must be an active user"}}}
	}
	return err
}

// CreateSubAccountInput represents input for attaching a sub-account.
type CreateSubAccountInput struct {
	ParentIBAN string
	Type       string
}

// CreateSubAccount attaches a savings or blocked account to a current
// account. Name, currency, BIC and owner are inherited from the parent.
func (uc *AccountUseCase) CreateSubAccount(ctx context.Context, input CreateSubAccountInput) (*domain.Account, error) {
	accountType := domain.AccountType(strings.ToLower(strings.TrimSpace(input.Type)))
	if !accountType.IsSubAccountType() {
		return nil, domain.ErrInvalidSubAccountType
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the parent so it cannot be blocked or deleted concurrently
	parent, err := uc.accountRepo.GetByIBANForUpdate(ctx, tx, input.ParentIBAN)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrParentNotFound
		}
		return nil, err
	}

	if !parent.CanBeParent() {
		return nil, domain.ErrParentTypeInvalid
	}

	now := uc.now().UTC()
	parentIBAN := parent.IBAN

	account := &domain.Account{
		IBAN:       uc.ibanGen.Generate(),
		Name:       parent.Name,
		BIC:        parent.BIC,
		Currency:   parent.Currency,
		Type:       accountType,
		Balance:    decimal.Zero,
		ParentIBAN: &parentIBAN,
		OwnerID:    parent.OwnerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.recordCreated(account)

	return account, nil
}

func (uc *AccountUseCase) create(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.recordCreated(account)
	return nil
}

func (uc *AccountUseCase) recordCreated(account *domain.Account) {
	if uc.metrics != nil {
		uc.metrics.AccountsCreated.WithLabelValues(string(account.Type)).Inc()
	}
	uc.logger.Info().
		Str("iban", account.IBAN).
		Str("type", string(account.Type)).
		Str("currency", string(account.Currency)).
		Msg("account created")
}

// BlockAccount turns an account into a blocked account, which may then only
// receive credits. Blocking a blocked account is a no-op.
func (uc *AccountUseCase) BlockAccount(ctx context.Context, iban string) (*domain.Account, error) {
	return uc.mutate(ctx, "block", iban, func(ctx context.Context, tx Transaction, account *domain.Account) (*domain.Account, error) {
		if account.IsBlocked() {
			return account, nil
		}

		children, err := uc.accountRepo.CountChildren(ctx, tx, account.IBAN)
		if err != nil {
			return nil, err
		}
		if children > 0 {
			return nil, domain.ErrAccountHasSubAccounts
		}

		return uc.accountRepo.SetAccountType(ctx, tx, account.IBAN, domain.AccountTypeBlocked, uc.now().UTC())
	})
}

// UnblockAccount turns a blocked account into a savings account.
func (uc *AccountUseCase) UnblockAccount(ctx context.Context, iban string) (*domain.Account, error) {
	return uc.mutate(ctx, "unblock", iban, func(ctx context.Context, tx Transaction, account *domain.Account) (*domain.Account, error) {
		if !account.IsBlocked() {
			return nil, domain.ErrAccountNotBlocked
		}

		return uc.accountRepo.SetAccountType(ctx, tx, account.IBAN, domain.AccountTypeSavings, uc.now().UTC())
	})
}

// DeleteAccount removes an account. Blocked accounts and accounts with
// sub-accounts cannot be deleted.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, iban string) error {
	_, err := uc.mutate(ctx, "delete", iban, func(ctx context.Context, tx Transaction, account *domain.Account) (*domain.Account, error) {
		if account.IsBlocked() {
			return nil, domain.ErrAccountBlocked
		}

		children, err := uc.accountRepo.CountChildren(ctx, tx, account.IBAN)
		if err != nil {
			return nil, err
		}
		if children > 0 {
			return nil, domain.ErrAccountHasSubAccounts
		}

		if err := uc.accountRepo.Delete(ctx, tx, account.IBAN); err != nil {
			return nil, err
		}
		return account, nil
	})
	return err
}

// mutate runs fn against the locked account inside one store transaction.
func (uc *AccountUseCase) mutate(
	ctx context.Context,
	operation, iban string,
	fn func(ctx context.Context, tx Transaction, account *domain.Account) (*domain.Account, error),
) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIBANForUpdate(ctx, tx, iban)
	if err != nil {
		return nil, err
	}

	result, err := fn(ctx, tx, account)
	if err != nil {
		uc.logger.Debug().Err(err).Str("iban", iban).Str("operation", operation).Msg("account operation refused")
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues(operation).Inc()
	}
	uc.logger.Info().Str("iban", iban).Str("operation", operation).Msg("account updated")

	return result, nil
}

// GetAccount retrieves an account by IBAN.
func (uc *AccountUseCase) GetAccount(ctx context.Context, iban string) (*domain.Account, error) {
	return uc.accountRepo.GetByIBAN(ctx, iban)
}

// ListRootAccountsInput represents input for listing main accounts.
type ListRootAccountsInput struct {
	Page     int
	PageSize int
}

// AccountPage is one page of main accounts.
type AccountPage struct {
	Accounts     []*domain.Account
	TotalRecords int
	TotalPages   int
	CurrentPage  int
	PageSize     int
}

// ListRootAccounts lists accounts without a parent, page by page. A page
// past the end is clamped to the last page.
func (uc *AccountUseCase) ListRootAccounts(ctx context.Context, input ListRootAccountsInput) (*AccountPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize, _ := domain.ValidatePagination(input.PageSize, 0)

	total, err := uc.accountRepo.CountRoots(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	accounts, err := uc.accountRepo.ListRoots(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &AccountPage{
		Accounts:     accounts,
		TotalRecords: total,
		TotalPages:   totalPages,
		CurrentPage:  page,
		PageSize:     pageSize,
	}, nil
}

// ListSubAccounts lists the sub-accounts of an existing account.
func (uc *AccountUseCase) ListSubAccounts(ctx context.Context, parentIBAN string) ([]*domain.Account, error) {
	if _, err := uc.accountRepo.GetByIBAN(ctx, parentIBAN); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrParentNotFound
		}
		return nil, err
	}

	return uc.accountRepo.ListChildren(ctx, parentIBAN)
}

// AccountTree is a main account together with its sub-accounts.
type AccountTree struct {
	Account     *domain.Account
	SubAccounts []*domain.Account
}

// GetOwnerAccounts returns every main account of an owner with its
// sub-accounts.
func (uc *AccountUseCase) GetOwnerAccounts(ctx context.Context, ownerID string) ([]*AccountTree, error) {
	accounts, err := uc.accountRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	trees := make([]*AccountTree, 0)
	byIBAN := make(map[string]*AccountTree)
	for _, a := range accounts {
		if a.IsRoot() {
			tree := &AccountTree{Account: a, SubAccounts: make([]*domain.Account, 0)}
			trees = append(trees, tree)
			byIBAN[a.IBAN] = tree
		}
	}

	for _, a := range accounts {
		if a.IsRoot() {
			continue
		}
		tree, ok := byIBAN[*a.ParentIBAN]
		if !ok {
			uc.logger.Warn().Str("iban", a.IBAN).Str("owner_id", ownerID).Msg("sub-account parent owned by someone else")
			continue
		}
		tree.SubAccounts = append(tree.SubAccounts, a)
	}

	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: no accounts for owner %s", domain.ErrAccountNotFound, ownerID)
	}

	return trees, nil
}
