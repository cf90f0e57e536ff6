package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
)

func boolPtr(v bool) *bool { return &v }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type membershipFixture struct {
	repo      *mockWalletRepo
	directory *mockDirectory
	notifier  *mockNotifier
	signal    *mockSignaler
	snapshots *mockSnapshots
	uc        *MembershipUsecase
}

func newMembershipFixture() *membershipFixture {
	w := seedWallet()
	repo := &mockWalletRepo{wallet: w, vault: seedVault(w)}
	directory := &mockDirectory{
		users: map[string]covault.UserProfile{
			outsideID: {UserID: outsideID, Name: "jordan", Address: "0x00000000000000000000000000000000000000bb"},
		},
		errs: map[string]error{},
	}
	notifier := &mockNotifier{}
	signal := &mockSignaler{}
	snapshots := &mockSnapshots{}

	return &membershipFixture{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		signal:    signal,
		snapshots: snapshots,
		uc:        NewMembershipUsecase(repo, directory, notifier, signal, snapshots, zeroBackoff()...),
	}
}

func TestInviteAppendsInvitedMember(t *testing.T) {
	f := newMembershipFixture()

	res, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{outsideID})
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if res.Invited != 1 || len(res.Failures) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	m, ok := f.repo.wallet.Member(outsideID)
	if !ok {
		t.Fatalf("invitee missing from roster")
	}
	if m.Status != domain.StatusInvited || m.Role != domain.RoleMember {
		t.Fatalf("unexpected roster entry %+v", m)
	}
	if m.InvitedBy != creatorID || m.Name != "jordan" {
		t.Fatalf("profile fields not copied: %+v", m)
	}
	if !m.Contributed.IsZero() || !m.Withdrawn.IsZero() {
		t.Fatalf("counters must start at zero")
	}

	last := f.repo.activities[len(f.repo.activities)-1]
	if last.Kind != domain.ActivityMemberInvited || len(last.SubjectIDs) != 1 || last.SubjectIDs[0] != outsideID {
		t.Fatalf("unexpected activity %+v", last)
	}

	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != outsideID {
		t.Fatalf("invitee should be notified, got %+v", f.notifier.sent)
	}
	if len(f.signal.events) != 1 || f.signal.events[0].Channel != covault.WalletChannel("cvw1testwallet") {
		t.Fatalf("wallet event should be published, got %+v", f.signal.events)
	}
	if len(f.snapshots.invalidated) != 1 {
		t.Fatalf("snapshot should be invalidated")
	}
}

func TestInviteReportsPerInviteeOutcomes(t *testing.T) {
	f := newMembershipFixture()

	noAddr := mustUserID(0x06)
	suspended := mustUserID(0x07)
	broken := mustUserID(0x08)
	unknown := mustUserID(0x09)
	f.directory.users[noAddr] = covault.UserProfile{UserID: noAddr, Name: "sam"}
	f.directory.users[suspended] = covault.UserProfile{UserID: suspended, Name: "alex", Suspended: true}
	f.directory.errs[broken] = domain.UnavailableError{Collaborator: "directory"}

	res, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID,
		[]string{outsideID, memberID, "not-an-id", unknown, suspended, broken, noAddr})
	if err != nil {
		t.Fatalf("partial failure must not be an error: %v", err)
	}

	if res.Invited != 2 {
		t.Fatalf("expected outsideID and noAddr invited, got %d", res.Invited)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "payout address") {
		t.Fatalf("missing payout address should warn, got %v", res.Warnings)
	}

	reasons := map[string]string{}
	for _, fl := range res.Failures {
		reasons[fl.UserID] = fl.Reason
	}
	want := map[string]string{
		memberID:    "already a member",
		"not-an-id": "invalid user id",
		unknown:     "user not found",
		suspended:   "user is suspended",
		broken:      "identity lookup failed",
	}
	for id, reason := range want {
		if reasons[id] != reason {
			t.Fatalf("invitee %s: want reason %q got %q", id, reason, reasons[id])
		}
	}

	for _, called := range f.directory.calls {
		if called == "not-an-id" {
			t.Fatalf("malformed ids must not reach the directory")
		}
	}
}

func TestInviteDeniedWithoutPermission(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.Invite(context.Background(), "cvw1testwallet", memberID, []string{outsideID})
	if !domain.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if !strings.Contains(err.Error(), "canInviteMembers") {
		t.Fatalf("reason should name the missing capability: %v", err)
	}
	if f.repo.commits != 0 {
		t.Fatalf("denied invite must not commit")
	}
}

func TestInviteHonorsMemberInvitesSetting(t *testing.T) {
	f := newMembershipFixture()
	f.repo.wallet.Settings.AllowMemberInvites = false

	_, err := f.uc.Invite(context.Background(), "cvw1testwallet", adminID, []string{outsideID})
	if !domain.IsAuthorization(err) || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("admin invite with invites disabled should deny, got %v", err)
	}

	res, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{outsideID})
	if err != nil || res.Invited != 1 {
		t.Fatalf("the creator bypasses the setting: %v %+v", err, res)
	}
}

func TestInviteRespectsMemberCap(t *testing.T) {
	f := newMembershipFixture()
	limit := 4
	f.repo.wallet.Settings.MaxMembers = &limit

	_, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{outsideID})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "limited to 4") {
		t.Fatalf("reason should carry the cap: %v", err)
	}
}

func TestInviteAllSkippedIsNoOp(t *testing.T) {
	f := newMembershipFixture()

	res, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{memberID})
	if err != nil {
		t.Fatalf("all-skipped invite is still a success: %v", err)
	}
	if res.Invited != 0 || len(res.Failures) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.repo.commits != 0 || len(f.signal.events) != 0 {
		t.Fatalf("nothing should be written or published")
	}
}

func TestInviteRetriesOnConflict(t *testing.T) {
	f := newMembershipFixture()
	f.repo.conflictsLeft = 1

	res, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{outsideID})
	if err != nil || res.Invited != 1 {
		t.Fatalf("conflict should be retried: %v %+v", err, res)
	}
	if f.repo.commits != 1 {
		t.Fatalf("expected exactly one commit, got %d", f.repo.commits)
	}
	if len(f.directory.calls) != 1 {
		t.Fatalf("directory lookups must not be repeated per attempt, got %v", f.directory.calls)
	}
}

func TestAcceptActivatesMemberAndGrants(t *testing.T) {
	f := newMembershipFixture()

	wallet, err := f.uc.Accept(context.Background(), "cvw1testwallet", pendingID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	m, _ := wallet.Member(pendingID)
	if m.Status != domain.StatusActive || m.JoinedAt == nil {
		t.Fatalf("member should be active with JoinedAt set: %+v", m)
	}
	if !f.repo.vault.HasGrant(pendingID) {
		t.Fatalf("grant must be added at acceptance")
	}

	last := f.repo.activities[len(f.repo.activities)-1]
	if last.Kind != domain.ActivityMemberJoined || last.ActorID != pendingID {
		t.Fatalf("unexpected activity %+v", last)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != creatorID {
		t.Fatalf("inviter should be notified, got %+v", f.notifier.sent)
	}
}

func TestInviteAcceptScenarioGrantList(t *testing.T) {
	f := newMembershipFixture()
	f.repo.wallet.Members = f.repo.wallet.Members[:1]
	f.repo.vault = seedVault(f.repo.wallet)

	first := mustUserID(0x0A)
	second := mustUserID(0x0B)
	third := mustUserID(0x0C)
	for _, id := range []string{first, second, third} {
		f.directory.users[id] = covault.UserProfile{UserID: id, Address: "0x00000000000000000000000000000000000000cc"}
	}

	res, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{first, second, third})
	if err != nil || res.Invited != 3 {
		t.Fatalf("inviting three users failed: %v %+v", err, res)
	}

	if _, err := f.uc.Accept(context.Background(), "cvw1testwallet", first); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	active, invited := 0, 0
	for _, m := range f.repo.wallet.Members {
		switch m.Status {
		case domain.StatusActive:
			active++
		case domain.StatusInvited:
			invited++
		}
	}
	if active != 2 || invited != 2 {
		t.Fatalf("expected creator+1 active and 2 invited, got %d/%d", active, invited)
	}

	if len(f.repo.vault.Grants) != 2 {
		t.Fatalf("grant list should hold exactly creator and the accepted user, got %+v", f.repo.vault.Grants)
	}
	if !f.repo.vault.HasGrant(creatorID) || !f.repo.vault.HasGrant(first) {
		t.Fatalf("wrong grant holders: %+v", f.repo.vault.Grants)
	}
}

func TestAcceptIdempotent(t *testing.T) {
	f := newMembershipFixture()

	if _, err := f.uc.Accept(context.Background(), "cvw1testwallet", pendingID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	commits := f.repo.commits
	events := len(f.signal.events)
	grants := len(f.repo.vault.Grants)

	wallet, err := f.uc.Accept(context.Background(), "cvw1testwallet", pendingID)
	if err != nil {
		t.Fatalf("second accept must be a no-op success: %v", err)
	}
	if wallet == nil {
		t.Fatalf("no-op accept should still return the wallet")
	}
	if f.repo.commits != commits || len(f.signal.events) != events {
		t.Fatalf("no-op accept must not write or publish")
	}
	if len(f.repo.vault.Grants) != grants {
		t.Fatalf("no-op accept must not duplicate grants")
	}
}

func TestAcceptWithoutInvitation(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.Accept(context.Background(), "cvw1testwallet", outsideID)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	m, _ := f.repo.wallet.Member(memberID)
	m.Status = domain.StatusRemoved
	_, err = f.uc.Accept(context.Background(), "cvw1testwallet", memberID)
	if !domain.IsAuthorization(err) || !strings.Contains(err.Error(), "removed") {
		t.Fatalf("removed member accept should deny distinctly, got %v", err)
	}
}

func TestAcceptVaultFailureLeavesMemberInvited(t *testing.T) {
	f := newMembershipFixture()
	f.repo.vaultErr = domain.UnavailableError{Collaborator: "vault"}

	_, err := f.uc.Accept(context.Background(), "cvw1testwallet", pendingID)
	if !domain.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	m, _ := f.repo.wallet.Member(pendingID)
	if m.Status != domain.StatusInvited {
		t.Fatalf("failed acceptance must leave the member invited, got %s", m.Status)
	}
	if f.repo.commits != 0 || len(f.signal.events) != 0 || len(f.notifier.sent) != 0 {
		t.Fatalf("aborted acceptance must have no side effects")
	}
}

func TestLeaveRevokesGrant(t *testing.T) {
	f := newMembershipFixture()

	wallet, err := f.uc.Leave(context.Background(), "cvw1testwallet", memberID)
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	m, ok := wallet.Member(memberID)
	if !ok || m.Status != domain.StatusLeft {
		t.Fatalf("member should stay on the roster as left: %+v", m)
	}
	if f.repo.vault.HasGrant(memberID) {
		t.Fatalf("grant must be revoked on leave")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != creatorID {
		t.Fatalf("creator should be notified, got %+v", f.notifier.sent)
	}
}

func TestLeaveCreatorDenied(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.Leave(context.Background(), "cvw1testwallet", creatorID)
	if !domain.IsAuthorization(err) || !strings.Contains(err.Error(), "creator") {
		t.Fatalf("creator leave should deny, got %v", err)
	}
}

func TestLeaveStates(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.Leave(context.Background(), "cvw1testwallet", pendingID)
	if !domain.IsValidation(err) {
		t.Fatalf("invited member leave should be a validation error, got %v", err)
	}

	if _, err := f.uc.Leave(context.Background(), "cvw1testwallet", memberID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	commits := f.repo.commits

	if _, err := f.uc.Leave(context.Background(), "cvw1testwallet", memberID); err != nil {
		t.Fatalf("repeated leave must be a no-op success: %v", err)
	}
	if f.repo.commits != commits {
		t.Fatalf("repeated leave must not write")
	}
}

func TestRemoveKeepsRosterEntry(t *testing.T) {
	f := newMembershipFixture()
	before := len(f.repo.wallet.Members)

	wallet, err := f.uc.Remove(context.Background(), "cvw1testwallet", creatorID, memberID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if len(wallet.Members) != before {
		t.Fatalf("removal must not delete the roster entry")
	}
	m, _ := wallet.Member(memberID)
	if m.Status != domain.StatusRemoved {
		t.Fatalf("target should be removed, got %s", m.Status)
	}
	if f.repo.vault.HasGrant(memberID) {
		t.Fatalf("grant must be revoked on removal")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != memberID {
		t.Fatalf("target should be notified, got %+v", f.notifier.sent)
	}
}

func TestRemoveDeniedWithoutCapability(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.Remove(context.Background(), "cvw1testwallet", adminID, memberID)
	if !domain.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if !strings.Contains(err.Error(), "canRemoveMembers") {
		t.Fatalf("reason should name the missing capability: %v", err)
	}

	if _, err := f.uc.Remove(context.Background(), "cvw1testwallet", creatorID, memberID); err != nil {
		t.Fatalf("creator removal should succeed: %v", err)
	}
}

func TestRemoveCreatorDenied(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.Remove(context.Background(), "cvw1testwallet", creatorID, creatorID)
	if !domain.IsAuthorization(err) || !strings.Contains(err.Error(), "creator") {
		t.Fatalf("creator must be untouchable, got %v", err)
	}
}

func TestRemoveInvitedRescindsInvite(t *testing.T) {
	f := newMembershipFixture()

	wallet, err := f.uc.Remove(context.Background(), "cvw1testwallet", creatorID, pendingID)
	if err != nil {
		t.Fatalf("removing an invited member failed: %v", err)
	}
	m, _ := wallet.Member(pendingID)
	if m.Status != domain.StatusRemoved {
		t.Fatalf("invite should be rescinded, got %s", m.Status)
	}

	_, err = f.uc.Remove(context.Background(), "cvw1testwallet", creatorID, pendingID)
	if !domain.IsValidation(err) {
		t.Fatalf("removing twice should fail validation, got %v", err)
	}
}

func TestUpdateRoleCreatorOnly(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", adminID, memberID, domain.RoleAdmin)
	if !domain.IsAuthorization(err) {
		t.Fatalf("only the creator may change roles, got %v", err)
	}

	wallet, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, memberID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("role update failed: %v", err)
	}
	m, _ := wallet.Member(memberID)
	if m.Role != domain.RoleAdmin {
		t.Fatalf("role should change, got %s", m.Role)
	}

	last := f.repo.activities[len(f.repo.activities)-1]
	if last.Kind != domain.ActivityRoleChanged || last.Note != "member to admin" {
		t.Fatalf("unexpected activity %+v", last)
	}
}

func TestUpdateRoleInvalidInputs(t *testing.T) {
	f := newMembershipFixture()

	if _, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, memberID, domain.RoleCreator); !domain.IsValidation(err) {
		t.Fatalf("creator role must not be assignable, got %v", err)
	}
	if f.repo.commits != 0 {
		t.Fatalf("invalid role must be rejected before I/O")
	}

	if _, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, creatorID, domain.RoleAdmin); !domain.IsAuthorization(err) {
		t.Fatalf("the creator's role must be untouchable, got %v", err)
	}

	commits := f.repo.commits
	if _, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, memberID, domain.RoleMember); err != nil {
		t.Fatalf("same-role update must be a no-op success, got %v", err)
	}
	if f.repo.commits != commits {
		t.Fatalf("same-role update must not write")
	}
}

func TestUpdateRoleOverrideHandling(t *testing.T) {
	f := newMembershipFixture()
	m, _ := f.repo.wallet.Member(memberID)
	m.Permissions = &domain.PermissionOverride{CanInviteMembers: boolPtr(true)}

	wallet, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, memberID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("role update failed: %v", err)
	}
	got, _ := wallet.Member(memberID)
	if got.Permissions != nil {
		t.Fatalf("override should be cleared while custom permissions are off")
	}

	f = newMembershipFixture()
	f.repo.wallet.Settings.EnableCustomPermissions = true
	m, _ = f.repo.wallet.Member(memberID)
	m.Permissions = &domain.PermissionOverride{CanInviteMembers: boolPtr(true)}

	wallet, err = f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, memberID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("role update failed: %v", err)
	}
	got, _ = wallet.Member(memberID)
	if got.Permissions == nil || got.Permissions.CanInviteMembers == nil {
		t.Fatalf("override should be preserved when custom permissions are on")
	}
}

func TestUpdateRoleConcurrentChangesBothLand(t *testing.T) {
	f := newMembershipFixture()

	f.repo.conflictsLeft = 1
	if _, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, adminID, domain.RoleMember); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	f.repo.conflictsLeft = 1
	if _, err := f.uc.UpdateRole(context.Background(), "cvw1testwallet", creatorID, memberID, domain.RoleAdmin); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	a, _ := f.repo.wallet.Member(adminID)
	b, _ := f.repo.wallet.Member(memberID)
	if a.Role != domain.RoleMember || b.Role != domain.RoleAdmin {
		t.Fatalf("both updates must survive the conflicts: %s %s", a.Role, b.Role)
	}
	if f.repo.commits != 2 {
		t.Fatalf("expected 2 commits, got %d", f.repo.commits)
	}
}

func TestUpdatePermissionsMergeAndFlag(t *testing.T) {
	f := newMembershipFixture()

	patch := &domain.PermissionOverride{
		CanInviteMembers: boolPtr(true),
		WithdrawalLimit:  decPtr("100"),
	}
	wallet, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", creatorID, memberID, patch)
	if err != nil {
		t.Fatalf("update permissions failed: %v", err)
	}

	if !wallet.Settings.EnableCustomPermissions {
		t.Fatalf("writing an override must flip custom permissions on")
	}

	m, _ := wallet.Member(memberID)
	perms := domain.ResolvePermissions(m, wallet)
	if !perms.CanInviteMembers {
		t.Fatalf("merged override should grant invites")
	}
	if perms.WithdrawalLimit == nil || !perms.WithdrawalLimit.Equal(dec("100")) {
		t.Fatalf("quota not applied: %+v", perms.WithdrawalLimit)
	}
	if !perms.CanWithdraw {
		t.Fatalf("unspecified fields must keep role defaults")
	}

	second := &domain.PermissionOverride{CanWithdraw: boolPtr(false)}
	wallet, err = f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", creatorID, memberID, second)
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	m, _ = wallet.Member(memberID)
	if m.Permissions.CanInviteMembers == nil || !*m.Permissions.CanInviteMembers {
		t.Fatalf("merge must keep fields the patch left unset")
	}
	if m.Permissions.WithdrawalLimit != nil {
		t.Fatalf("disabling withdraw must shed stored quotas")
	}

	if len(f.notifier.sent) != 2 {
		t.Fatalf("target should be notified per update, got %d", len(f.notifier.sent))
	}
}

func TestUpdatePermissionsGates(t *testing.T) {
	f := newMembershipFixture()

	if _, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", memberID, adminID, &domain.PermissionOverride{}); !domain.IsAuthorization(err) {
		t.Fatalf("plain member must not update permissions, got %v", err)
	}
	if _, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", adminID, adminID, &domain.PermissionOverride{}); !domain.IsAuthorization(err) {
		t.Fatalf("admins must not retune themselves, got %v", err)
	}
	if _, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", adminID, creatorID, &domain.PermissionOverride{}); !domain.IsAuthorization(err) {
		t.Fatalf("the creator must be untouchable, got %v", err)
	}
	if _, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", creatorID, memberID, nil); !domain.IsValidation(err) {
		t.Fatalf("nil override must fail validation before I/O")
	}

	if _, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", adminID, memberID, &domain.PermissionOverride{CanFund: boolPtr(false)}); err != nil {
		t.Fatalf("admins may update other members: %v", err)
	}
}

func TestUpdatePermissionsNotificationFailureIgnored(t *testing.T) {
	f := newMembershipFixture()
	f.notifier.err = domain.UnavailableError{Collaborator: "notifications"}

	_, err := f.uc.UpdatePermissions(context.Background(), "cvw1testwallet", creatorID, memberID,
		&domain.PermissionOverride{CanFund: boolPtr(false)})
	if err != nil {
		t.Fatalf("notification failure must never fail the update: %v", err)
	}
	if f.repo.commits != 1 {
		t.Fatalf("change should have committed")
	}
}

func TestMutationsRejectedOnArchivedWallet(t *testing.T) {
	f := newMembershipFixture()
	f.repo.wallet.Status = domain.WalletArchived

	if _, err := f.uc.Invite(context.Background(), "cvw1testwallet", creatorID, []string{outsideID}); !domain.IsValidation(err) {
		t.Fatalf("invite on archived wallet should fail, got %v", err)
	}
	if _, err := f.uc.Accept(context.Background(), "cvw1testwallet", pendingID); !domain.IsValidation(err) {
		t.Fatalf("accept on archived wallet should fail, got %v", err)
	}
	if _, err := f.uc.Remove(context.Background(), "cvw1testwallet", creatorID, memberID); !domain.IsValidation(err) {
		t.Fatalf("remove on archived wallet should fail, got %v", err)
	}
}
