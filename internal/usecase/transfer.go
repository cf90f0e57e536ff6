package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/retry"
)

// TransferUsecase is the consumed-here counterpart of the out-of-scope
// transfer pipeline: the pipeline reports completed transfers and this
// records their effect on the wallet's balance and counters.
type TransferUsecase struct {
	wallets   WalletRepository
	signal    Signaler
	snapshots SnapshotCache
	retryOpts []retry.Option
}

func NewTransferUsecase(
	wallets WalletRepository,
	signal Signaler,
	snapshots SnapshotCache,
	retryOpts ...retry.Option,
) *TransferUsecase {
	return &TransferUsecase{
		wallets:   wallets,
		signal:    signal,
		snapshots: snapshots,
		retryOpts: retryOpts,
	}
}

// RecordFunding credits a completed inbound transfer to the wallet and
// the contributing member.
func (uc *TransferUsecase) RecordFunding(ctx context.Context, walletID, userID string, amount decimal.Decimal) (*domain.SharedWallet, error) {
	if !amount.IsPositive() {
		return nil, domain.ValidationError{Message: "amount must be positive"}
	}

	wallet, err := retry.Do(ctx, "transfer.funding", func(ctx context.Context) (*domain.SharedWallet, error) {
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			m, ok := w.Member(userID)
			if !ok {
				return nil, domain.AuthorizationError{Action: domain.ActionFund, Reason: "not a member of this wallet"}
			}
			if d := domain.CanPerform(m, w, domain.ActionFund); !d.Allowed {
				return nil, domain.AuthorizationError{Action: domain.ActionFund, Reason: d.Reason}
			}

			now := time.Now()
			m.Contributed = m.Contributed.Add(amount)
			m.UpdatedAt = now
			w.TotalBalance = w.TotalBalance.Add(amount)
			w.UpdatedAt = now

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:  w.ID,
					Kind:      domain.ActivityWalletFunded,
					ActorID:   userID,
					Amount:    &amount,
					CreatedAt: now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if err != nil {
		return nil, err
	}

	announce(ctx, uc.snapshots, uc.signal, wallet, domain.ActivityWalletFunded, userID,
		map[string]string{"userId": userID, "amount": amount.String()})
	return wallet, nil
}

// RecordWithdrawal debits a completed outbound transfer. The withdrawal
// gate is re-checked inside the transaction so a permission change
// racing the transfer cannot slip through, and the balance never goes
// negative.
func (uc *TransferUsecase) RecordWithdrawal(ctx context.Context, walletID, userID string, amount decimal.Decimal) (*domain.SharedWallet, error) {
	if !amount.IsPositive() {
		return nil, domain.ValidationError{Message: "amount must be positive"}
	}

	wallet, err := retry.Do(ctx, "transfer.withdrawal", func(ctx context.Context) (*domain.SharedWallet, error) {
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			m, ok := w.Member(userID)
			if !ok {
				return nil, domain.AuthorizationError{Action: domain.ActionWithdraw, Reason: "not a member of this wallet"}
			}

			now := time.Now()
			if d := domain.CanWithdrawAmount(m, w, amount, now); !d.Allowed {
				return nil, domain.AuthorizationError{Action: domain.ActionWithdraw, Reason: d.Reason}
			}
			if w.TotalBalance.LessThan(amount) {
				return nil, domain.ValidationError{Message: "insufficient wallet balance"}
			}

			m.Withdrawn = m.Withdrawn.Add(amount)
			m.RollDailyCounter(amount, now)
			m.UpdatedAt = now
			w.TotalBalance = w.TotalBalance.Sub(amount)
			w.UpdatedAt = now

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:  w.ID,
					Kind:      domain.ActivityWalletWithdrawn,
					ActorID:   userID,
					Amount:    &amount,
					CreatedAt: now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if err != nil {
		return nil, err
	}

	announce(ctx, uc.snapshots, uc.signal, wallet, domain.ActivityWalletWithdrawn, userID,
		map[string]string{"userId": userID, "amount": amount.String()})
	return wallet, nil
}
