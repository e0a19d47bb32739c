package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/config"
)

const idempotencyKeyHeader = "Idempotency-Key"

type globalOptions struct {
	baseURL string
	token   string
	timeout time.Duration
}

func (o *globalOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:          "bankledger-cli",
		Short:        "bankledger CLI tool",
		Long:         `A command line interface for interacting with the bankledger API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("BANKLEDGER_URL", "http://localhost:8080"), "Base URL of the bankledger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BANKLEDGER_TOKEN"), "Bearer token sent with every request")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newAccountsCmd(opts),
		newTransactionsCmd(opts),
		newLedgerCmd(opts),
		newTokenCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newAccountsCmd(opts *globalOptions) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var name, currency, bic, owner string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a main account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"name": name, "currency": currency, "bic": bic}
			if owner != "" {
				body["ownerId"] = owner
			}
			data, _, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/accounts/", nil, body, nil)
			return output(cmd, data, err)
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account name")
	createCmd.Flags().StringVar(&currency, "currency", string(domain.CanonicalCurrency), "Account currency (EURO, USD, FCFA)")
	createCmd.Flags().StringVar(&bic, "bic", "", "Bank identifier code")
	createCmd.Flags().StringVar(&owner, "owner", "", "Owner ID (defaults to the token subject)")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("bic")

	var subType string
	subCreateCmd := &cobra.Command{
		Use:   "add-sub PARENT_IBAN",
		Short: "Attach a savings or blocked sub-account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/accounts/"+url.PathEscape(args[0])+"/subaccounts", nil,
				map[string]string{"accountType": subType}, nil)
			return output(cmd, data, err)
		},
	}
	subCreateCmd.Flags().StringVar(&subType, "type", string(domain.AccountTypeSavings), "Sub-account type (savings or blocked)")

	var page, pageSize int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List main accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("page", strconv.Itoa(page))
			if pageSize > 0 {
				q.Set("pageSize", strconv.Itoa(pageSize))
			}
			data, _, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/accounts/", q, nil, nil)
			return output(cmd, data, err)
		},
	}
	listCmd.Flags().IntVar(&page, "page", 1, "Page number")
	listCmd.Flags().IntVar(&pageSize, "page-size", 0, "Page size")

	accountsCmd.AddCommand(
		createCmd,
		subCreateCmd,
		listCmd,
		simpleCmd(opts, "get IBAN", "Show an account", http.MethodGet, "/api/v1/accounts/%s"),
		simpleCmd(opts, "subs IBAN", "List the sub-accounts of an account", http.MethodGet, "/api/v1/accounts/%s/subaccounts"),
		simpleCmd(opts, "owner OWNER_ID", "List every account of an owner", http.MethodGet, "/api/v1/owners/%s/accounts"),
		simpleCmd(opts, "block IBAN", "Block a savings sub-account", http.MethodPost, "/api/v1/accounts/%s/block"),
		simpleCmd(opts, "unblock IBAN", "Unblock a blocked sub-account", http.MethodPost, "/api/v1/accounts/%s/unblock"),
		simpleCmd(opts, "delete IBAN", "Delete an account", http.MethodDelete, "/api/v1/accounts/%s"),
	)

	return accountsCmd
}

func newTransactionsCmd(opts *globalOptions) *cobra.Command {
	transactionsCmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Transaction operations",
	}

	var (
		txType, amount, currency, from, to, reason, key string
		requireApproval                                 bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Record a credit, debit or transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"transactionType": txType,
				"amount":          amount,
			}
			for field, v := range map[string]string{
				"currency":            currency,
				"accountIbanEmitter":  from,
				"accountIbanReceiver": to,
				"reason":              reason,
			} {
				if v != "" {
					body[field] = v
				}
			}
			if requireApproval {
				body["requireApproval"] = true
			}

			data, _, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/transactions/", nil, body,
				map[string]string{idempotencyKeyHeader: key})
			return output(cmd, data, err)
		},
	}
	createCmd.Flags().StringVar(&txType, "type", "", "Transaction type (credit, debit, transfer)")
	createCmd.Flags().StringVar(&amount, "amount", "", "Amount as a decimal string")
	createCmd.Flags().StringVar(&currency, "currency", "", "Currency of the amount (defaults to EURO)")
	createCmd.Flags().StringVar(&from, "from", "", "Emitter IBAN")
	createCmd.Flags().StringVar(&to, "to", "", "Receiver IBAN")
	createCmd.Flags().StringVar(&reason, "reason", "", "Free-form reason")
	createCmd.Flags().StringVar(&key, "idempotency-key", "", "Idempotency key for safe retries")
	createCmd.Flags().BoolVar(&requireApproval, "require-approval", false, "Hold the transaction until an admin approves it")
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("amount")

	var (
		status, filterType, iban, accountType, owner, date string
		limit, offset                                      int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for k, v := range map[string]string{
				"status":          status,
				"transactionType": filterType,
				"iban":            iban,
				"accountType":     accountType,
				"ownerId":         owner,
				"date":            date,
			} {
				if v != "" {
					q.Set(k, v)
				}
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			data, _, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/transactions/", q, nil, nil)
			return output(cmd, data, err)
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (in_process, approved, rejected)")
	listCmd.Flags().StringVar(&filterType, "type", "", "Filter by transaction type")
	listCmd.Flags().StringVar(&iban, "iban", "", "Filter by emitter or receiver IBAN")
	listCmd.Flags().StringVar(&accountType, "account-type", "", "Filter by emitter account type")
	listCmd.Flags().StringVar(&owner, "owner", "", "Filter by account owner")
	listCmd.Flags().StringVar(&date, "date", "", "Filter by creation day (YYYY-MM-DD)")
	listCmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	transactionsCmd.AddCommand(
		createCmd,
		listCmd,
		simpleCmd(opts, "get ID", "Show a transaction", http.MethodGet, "/api/v1/transactions/%s"),
		simpleCmd(opts, "approve ID", "Approve a pending transaction", http.MethodPost, "/api/v1/transactions/%s/approve"),
		simpleCmd(opts, "reject ID", "Reject a pending transaction", http.MethodPost, "/api/v1/transactions/%s/reject"),
	)

	return transactionsCmd
}

func newLedgerCmd(opts *globalOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [IBAN]",
		Short: "Compare stored balances with applied transactions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/ledger/reconciliation"
			if len(args) == 1 {
				path += "/" + url.PathEscape(args[0])
			}

			data, status, err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, nil, nil, http.StatusConflict)
			if err != nil {
				return output(cmd, data, err)
			}

			printJSON(cmd.OutOrStdout(), data)
			if status == http.StatusConflict {
				return errors.New("reconciliation FAILED: balances do not match applied transactions")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reconciliation PASSED")
			return nil
		},
	}

	ledgerCmd.AddCommand(reconcileCmd)
	return ledgerCmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret, userID, email, role string
		ttl                         time.Duration
	)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{
				ID:    userID,
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	tokenCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	tokenCmd.Flags().StringVar(&userID, "user", "dev", "User ID placed in the token")
	tokenCmd.Flags().StringVar(&email, "email", "", "User email")
	tokenCmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "Role (admin, operator, viewer)")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return tokenCmd
}

// simpleCmd builds a command taking one path argument and printing the
// response.
func simpleCmd(opts *globalOptions, use, short, method, pathFormat string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf(pathFormat, url.PathEscape(args[0]))
			data, _, err := opts.client().do(cmd.Context(), method, path, nil, nil, nil)
			return output(cmd, data, err)
		},
	}
}

func output(cmd *cobra.Command, data []byte, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		printJSON(cmd.ErrOrStderr(), data)
		return fmt.Errorf("request failed with status %d", apiErr.Status)
	}
	if err != nil {
		return err
	}

	if len(data) > 0 {
		printJSON(cmd.OutOrStdout(), data)
	}
	return nil
}
