package gifts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbpremium/gifts-backend/internal/admin"
	"github.com/sbpremium/gifts-backend/internal/audit"
	"github.com/sbpremium/gifts-backend/internal/delivery"
	"github.com/sbpremium/gifts-backend/internal/keys"
	"github.com/sbpremium/gifts-backend/internal/notifications"
	"github.com/sbpremium/gifts-backend/pkg/docstore"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/pagination"
)

const (
	developerID = "1362553254117904496"
	userU       = "111111111111111111"
	userV       = "222222222222222222"
)

var (
	dev      = admin.Principal{ID: developerID}
	stranger = admin.Principal{ID: userU}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []delivery.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event delivery.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) types() []enums.DeliveryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enums.DeliveryEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc   Service
	repo  Repository
	store docstore.Store
	feed  notifications.Service
	audit audit.Service
	pub   *recordingPublisher
	now   *time.Time
}

func newFixture(t *testing.T, store docstore.Store, opts ...keys.Option) *fixture {
	t.Helper()
	if store == nil {
		store = docstore.NewMemoryStore()
	}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	opts = append([]keys.Option{keys.WithClock(func() time.Time { return now })}, opts...)
	issuer := keys.NewIssuer(opts...)
	gate := admin.NewStaticPolicy(developerID)

	auditSvc, err := audit.NewService(audit.NewRepository(store), logger.Nop())
	require.NoError(t, err)
	feed, err := notifications.NewService(notifications.Deps{
		Repo:   notifications.NewRepository(store),
		Gate:   gate,
		Audit:  auditSvc,
		Logger: logger.Nop(),
	}, notifications.Options{})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	repo := NewRepository(store)
	svc, err := NewService(Deps{
		Repo:      repo,
		Issuer:    issuer,
		Gate:      gate,
		Feed:      feed,
		Audit:     auditSvc,
		Publisher: pub,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, store: store, feed: feed, audit: auditSvc, pub: pub, now: &now}
}

func TestSiteWideTrialScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sent, err := f.svc.SendTrial(ctx, dev, "all", enums.Duration7D)
	require.NoError(t, err)
	assert.Regexp(t, `^SB-TRIAL-7D-[A-Z]+$`, sent.Code)
	assert.Equal(t, enums.GiftScopeGlobal, sent.Scope)

	anonymous, err := f.svc.ListVisible(ctx, "")
	require.NoError(t, err)
	require.Len(t, anonymous, 1)
	require.NotNil(t, anonymous[0].Duration)
	assert.Equal(t, enums.Duration7D, *anonymous[0].Duration)
	assert.Equal(t, enums.GiftScopeGlobal, anonymous[0].Scope)

	list, err := f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	require.Len(t, list, 1)

	claimed, err := f.svc.Redeem(ctx, userU, sent.Code)
	require.NoError(t, err)
	assert.True(t, keys.IsPremiumCode(claimed.Code))
	assert.True(t, claimed.Redeemed)
	require.NotNil(t, claimed.ExpiresAt)
	assert.Equal(t, f.now.AddDate(0, 0, 7), *claimed.ExpiresAt)

	list, err = f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Redeem(ctx, userU, sent.Code)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAlreadyClaimed))
	assert.Equal(t, "already claimed", pkgerrors.As(err).Message())

	_, err = f.svc.Redeem(ctx, userV, sent.GiftID)
	require.NoError(t, err, "a distinct user may claim by gift id")

	gift, err := f.repo.SiteWide(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{userU, userV}, gift.ClaimedUsers)
	assert.Equal(t, []enums.DeliveryEvent{
		enums.DeliveryEventTrialSent,
		enums.DeliveryEventGiftClaimed,
		enums.DeliveryEventGiftClaimed,
	}, f.pub.types())
}

func TestSendTrialByNonAdminChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.SendTrial(ctx, stranger, "all", enums.Duration7D)
	require.True(t, admin.IsForbidden(err))
	_, err = f.svc.SendTrial(ctx, stranger, userV, enums.Duration7D)
	require.True(t, admin.IsForbidden(err))

	visible, err := f.svc.ListVisible(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, visible)
	codes, err := f.svc.ListUnredeemed(ctx, userV)
	require.NoError(t, err)
	assert.Empty(t, codes)

	for _, collection := range []string{docstore.CollectionGifts, docstore.CollectionSiteWideGift, docstore.CollectionNotifications} {
		docs, err := f.store.List(ctx, collection)
		require.NoError(t, err)
		assert.Empty(t, docs, collection)
	}
	assert.Empty(t, f.pub.types())
}

func TestSendTrialValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration("2W"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = f.svc.SendTrial(ctx, dev, "12345", enums.Duration7D)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = f.svc.SendTrial(ctx, dev, "EveryOne", enums.Duration1D)
	assert.NoError(t, err, "sentinel is case-insensitive")
}

func TestSendTrialReplacesPendingTrialOfSameDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)
	_, err = f.svc.SendTrial(ctx, dev, userU, enums.Duration3D)
	require.NoError(t, err)
	second, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)

	codes, err := f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	durations := []enums.Duration{*codes[0].Duration, *codes[1].Duration}
	assert.ElementsMatch(t, []enums.Duration{enums.Duration3D, enums.Duration7D}, durations)
	assert.Equal(t, second.Code, codes[1].Code)
	_ = first

	feed, err := f.feed.List(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, enums.NotificationTypeTrial, feed[0].Type)
}

func TestSendTrialKeepsRedeemedTrials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, userU, first.Code)
	require.NoError(t, err)
	_, err = f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)

	all, err := f.repo.UserCodes(ctx, userU)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Redeemed)
}

func TestPersonalRedeem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sent, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration14D)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, userV, sent.Code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "gift not found", pkgerrors.As(err).Message())

	redeemed, err := f.svc.Redeem(ctx, userU, sent.Code)
	require.NoError(t, err)
	assert.Equal(t, sent.Code, redeemed.Code)
	require.NotNil(t, redeemed.RedeemedBy)
	assert.Equal(t, userU, *redeemed.RedeemedBy)

	_, err = f.svc.Redeem(ctx, userU, sent.Code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAlreadyClaimed))
	assert.Equal(t, "code already redeemed", pkgerrors.As(err).Message())

	list, err := f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	for _, c := range list {
		assert.False(t, c.Redeemed)
	}
}

func firstWord(int) int { return 0 }

func TestRepeatTrialNeverReusesHeldCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, keys.WithIntn(firstWord))

	first, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, userU, first.Code)
	require.NoError(t, err)

	second, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	list, err := f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.Code, list[0].Code)

	redeemed, err := f.svc.Redeem(ctx, userU, second.Code)
	require.NoError(t, err)
	assert.Equal(t, second.Code, redeemed.Code)

	list, err = f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPersonalTrialAvoidsSiteWideCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, keys.WithIntn(firstWord))

	site, err := f.svc.SendTrial(ctx, dev, "all", enums.Duration7D)
	require.NoError(t, err)
	personal, err := f.svc.SendTrial(ctx, dev, userU, enums.Duration7D)
	require.NoError(t, err)
	require.NotEqual(t, site.Code, personal.Code)

	redeemed, err := f.svc.Redeem(ctx, userU, personal.Code)
	require.NoError(t, err)
	assert.Equal(t, enums.GiftScopePersonal, redeemed.Scope)

	list, err := f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, enums.GiftScopeGlobal, list[0].Scope)

	claimed, err := f.svc.Redeem(ctx, userU, site.Code)
	require.NoError(t, err)
	assert.Equal(t, enums.GiftScopeGlobal, claimed.Scope)
}

func TestRedeemPrefersUnredeemedPersonalCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	site, err := f.svc.SendTrial(ctx, dev, "all", enums.Duration7D)
	require.NoError(t, err)
	d := enums.Duration7D
	require.NoError(t, f.repo.UpdateUserCodes(ctx, userU, func(codes []AccessCode) ([]AccessCode, error) {
		return append(codes, AccessCode{
			Code:     site.Code,
			Kind:     enums.CodeKindTrial,
			Scope:    enums.GiftScopePersonal,
			Title:    site.Title,
			Duration: &d,
			IssuedAt: *f.now,
		}), nil
	}))

	first, err := f.svc.Redeem(ctx, userU, site.Code)
	require.NoError(t, err)
	assert.Equal(t, enums.GiftScopePersonal, first.Scope)

	second, err := f.svc.Redeem(ctx, userU, site.Code)
	require.NoError(t, err)
	assert.Equal(t, enums.GiftScopeGlobal, second.Scope)

	_, err = f.svc.Redeem(ctx, userU, site.Code)
	require.Error(t, err)
	assert.Equal(t, "already claimed", pkgerrors.As(err).Message())

	list, err := f.svc.ListUnredeemed(ctx, userU)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClearGlobalInvalidatesClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sent, err := f.svc.SendTrial(ctx, dev, "all", enums.Duration30D)
	require.NoError(t, err)

	require.True(t, admin.IsForbidden(f.svc.ClearGlobal(ctx, stranger)))
	require.NoError(t, f.svc.ClearGlobal(ctx, dev))

	_, err = f.svc.Redeem(ctx, userU, sent.Code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	visible, err := f.svc.ListVisible(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, visible)

	gift, err := f.repo.SiteWide(ctx)
	require.NoError(t, err)
	assert.Nil(t, gift.Code)
	assert.False(t, gift.Active)

	require.NoError(t, f.svc.ClearGlobal(ctx, dev), "clearing twice is a no-op")
}

func TestSiteWideGiftExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sent, err := f.svc.SendTrial(ctx, dev, "all", enums.Duration1D)
	require.NoError(t, err)

	*f.now = f.now.Add(25 * time.Hour)
	visible, err := f.svc.ListVisible(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, visible)
	_, err = f.svc.Redeem(ctx, userU, sent.Code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	const code = "SB-PREM-ABCDEF0123"

	cases := []struct {
		name, giver, recipient, code string
	}{
		{"short code", userU, userV, "SB-PREM-ABC"},
		{"long code", userU, userV, "SB-PREM-ABCDEF01234"},
		{"wrong prefix", userU, userV, "SB-TRIAL-7D-NOVA"},
		{"self transfer", userU, userU, code},
		{"recipient too short", userU, "123456789012345", code},
		{"recipient too long", userU, "123456789012345678901", code},
		{"recipient not numeric", userU, "12345678901234567a", code},
		{"missing giver", "", userV, code},
	}
	for _, tc := range cases {
		err := f.svc.Transfer(ctx, tc.giver, tc.recipient, tc.code)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), tc.name)
	}

	require.NoError(t, f.svc.Transfer(ctx, userU, userV, code))
	err := f.svc.Transfer(ctx, userU, userV, code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	codes, err := f.svc.ListUnredeemed(ctx, userV)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Nil(t, codes[0].Duration)
	assert.Nil(t, codes[0].ExpiresAt)
	assert.Equal(t, enums.CodeKindPremium, codes[0].Kind)
	assert.Equal(t, userU, codes[0].SentBy)

	actions, err := f.audit.List(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, actions.Items, 1)
	assert.Equal(t, enums.DeveloperActionTransferPremium, actions.Items[0].Action)
	assert.Equal(t, userU, actions.Items[0].InitiatedBy)
}

func TestListUnredeemedRejectsBadUserID(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ListUnredeemed(context.Background(), "not-a-user")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestConcurrentSiteWideClaimsAreAtMostOncePerUser(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]func(t *testing.T) docstore.Store{
		"memory": func(*testing.T) docstore.Store { return docstore.NewMemoryStore() },
		"file": func(t *testing.T) docstore.Store {
			s, err := docstore.NewFileStore(t.TempDir(), logger.Nop())
			require.NoError(t, err)
			return s
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, store(t))
			sent, err := f.svc.SendTrial(ctx, dev, "all", enums.Duration7D)
			require.NoError(t, err)

			const attempts = 20
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				conflicts int
			)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.svc.Redeem(ctx, userU, sent.Code)
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						successes++
					} else if pkgerrors.Is(err, pkgerrors.CodeAlreadyClaimed) {
						conflicts++
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, successes)
			assert.Equal(t, attempts-1, conflicts)
			gift, err := f.repo.SiteWide(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{userU}, gift.ClaimedUsers)
		})
	}
}

func TestSentinelAndUserIDHelpers(t *testing.T) {
	assert.True(t, IsEveryone("all"))
	assert.True(t, IsEveryone(" ALL "))
	assert.True(t, IsEveryone("Everyone"))
	assert.False(t, IsEveryone("alll"))

	assert.True(t, IsUserID("1234567890123456"))
	assert.True(t, IsUserID("12345678901234567890"))
	assert.False(t, IsUserID("123456789012345"))
	assert.False(t, IsUserID("123456789012345678901"))
}
