package cachesvc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/reconcile"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain/interfaces"
)

type cacheService struct {
	stores StoreProvider
	teller interfaces.TellerClient
	logger zerolog.Logger
}

func New(stores StoreProvider, teller interfaces.TellerClient, logger zerolog.Logger) ICacheService {
	return &cacheService{
		stores: stores,
		teller: teller,
		logger: logger,
	}
}

func (s *cacheService) CreateConnectToken(ctx context.Context, options map[string]any) (json.RawMessage, error) {
	token, err := s.teller.CreateConnectToken(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create connect token: %w", err)
	}
	return token, nil
}

func (s *cacheService) Enroll(ctx context.Context, userID, accessToken, name string) (*EnrollmentResult, error) {
	var result EnrollmentResult

	err := s.stores.Within(ctx, func(st reconcile.Store) error {
		eng := reconcile.New(st, s.logger)

		user, err := eng.UpsertUser(ctx, userID, accessToken, name)
		if err != nil {
			return err
		}

		payloads, err := s.teller.ListAccounts(ctx, accessToken)
		if err != nil {
			return fmt.Errorf("failed to list teller accounts: %w", err)
		}

		accounts := make([]domain.Account, 0, len(payloads))
		for _, raw := range payloads {
			payload, err := domain.ParseAccountPayload(raw)
			if err != nil {
				return domain.Validationf("malformed account payload: %v", err)
			}
			account, err := eng.UpsertAccount(ctx, user, payload)
			if err != nil {
				return err
			}
			accounts = append(accounts, *account)
		}

		for i := range accounts {
			s.primeAccount(ctx, eng, accessToken, &accounts[i])
		}

		result = EnrollmentResult{User: *user, Accounts: accounts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// primeAccount warms the cache with a balance and a first transaction
// window. Teller API failures are tolerated per account so one broken
// account does not sink the whole enrollment; anything else would have
// been surfaced by the engine already.
func (s *cacheService) primeAccount(ctx context.Context, eng *reconcile.Engine, accessToken string, account *domain.Account) {
	if raw, err := s.teller.GetAccountBalances(ctx, accessToken, account.ID); err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to prime balance")
	} else if payload, err := domain.ParseBalancePayload(raw); err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Malformed balance payload, skipping")
	} else if _, err := eng.UpdateBalance(ctx, account, payload); err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to store primed balance")
	}

	raws, err := s.teller.GetAccountTransactions(ctx, accessToken, account.ID, 10)
	if err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to prime transactions")
		return
	}
	payloads := s.parseTransactionPayloads(raws, account.ID)
	if _, err := eng.ReplaceTransactions(ctx, account, payloads); err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to store primed transactions")
	}
}

func (s *cacheService) ListAccounts(ctx context.Context, token string) ([]domain.Account, error) {
	var accounts []domain.Account

	err := s.stores.Within(ctx, func(st reconcile.Store) error {
		user, err := authenticate(ctx, st, token)
		if err != nil {
			return err
		}
		accounts, err = reconcile.New(st, s.logger).ListAccounts(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *cacheService) CachedBalance(ctx context.Context, token, accountID string) (*domain.Balance, error) {
	var balance *domain.Balance

	err := s.stores.Within(ctx, func(st reconcile.Store) error {
		_, account, err := s.authorizedAccount(ctx, st, token, accountID)
		if err != nil {
			return err
		}
		balance, err = st.GetBalance(ctx, account.ID)
		if err != nil {
			return err
		}
		if balance == nil {
			return &domain.NotFoundError{Resource: "balance", ID: accountID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *cacheService) CachedTransactions(ctx context.Context, token, accountID string, limit int) ([]domain.Transaction, error) {
	var transactions []domain.Transaction

	err := s.stores.Within(ctx, func(st reconcile.Store) error {
		_, account, err := s.authorizedAccount(ctx, st, token, accountID)
		if err != nil {
			return err
		}
		transactions, err = reconcile.New(st, s.logger).ListTransactions(ctx, account.ID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (s *cacheService) LiveBalance(ctx context.Context, token, accountID string) (json.RawMessage, error) {
	var raw json.RawMessage

	err := s.stores.Within(ctx, func(st reconcile.Store) error {
		user, account, err := s.authorizedAccount(ctx, st, token, accountID)
		if err != nil {
			return err
		}

		raw, err = s.teller.GetAccountBalances(ctx, user.AccessToken, account.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch live balance: %w", err)
		}
		payload, err := domain.ParseBalancePayload(raw)
		if err != nil {
			return domain.Validationf("malformed balance payload: %v", err)
		}
		_, err = reconcile.New(st, s.logger).UpdateBalance(ctx, account, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *cacheService) LiveTransactions(ctx context.Context, token, accountID string, count int) ([]json.RawMessage, error) {
	var raws []json.RawMessage

	err := s.stores.Within(ctx, func(st reconcile.Store) error {
		user, account, err := s.authorizedAccount(ctx, st, token, accountID)
		if err != nil {
			return err
		}

		raws, err = s.teller.GetAccountTransactions(ctx, user.AccessToken, account.ID, count)
		if err != nil {
			return fmt.Errorf("failed to fetch live transactions: %w", err)
		}
		payloads := s.parseTransactionPayloads(raws, account.ID)
		_, err = reconcile.New(st, s.logger).ReplaceTransactions(ctx, account, payloads)
		return err
	})
	if err != nil {
		return nil, err
	}
	return raws, nil
}

func (s *cacheService) parseTransactionPayloads(raws []json.RawMessage, accountID string) []domain.TransactionPayload {
	payloads := make([]domain.TransactionPayload, 0, len(raws))
	for _, raw := range raws {
		payload, err := domain.ParseTransactionPayload(raw)
		if err != nil {
			s.logger.Warn().Err(err).Str("account_id", accountID).Msg("Skipping malformed transaction payload")
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

// authorizedAccount authenticates the token and checks ownership of the
// requested account. A missing account and a foreign account both come
// back as not-found so callers cannot probe other users' account ids.
func (s *cacheService) authorizedAccount(ctx context.Context, st reconcile.Store, token, accountID string) (*domain.User, *domain.Account, error) {
	user, err := authenticate(ctx, st, token)
	if err != nil {
		return nil, nil, err
	}
	account, err := st.GetAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil || account.UserID != user.ID {
		return nil, nil, &domain.NotFoundError{Resource: "account", ID: accountID}
	}
	return user, account, nil
}

func authenticate(ctx context.Context, st reconcile.Store, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnknownToken
	}
	user, err := st.GetUserByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnknownToken
	}
	return user, nil
}
