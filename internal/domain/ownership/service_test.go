package ownership

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
	"estateops/pkg/logger"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeTree serves a fixed tree with precomputed nested-set intervals.
type fakeTree struct {
	nodes map[id.ID]*locations.LocationNode
	units map[id.ID]*locations.UnitDetail
}

func (f *fakeTree) GetNode(ctx context.Context, nodeID id.ID) (*locations.LocationNode, error) {
	n, ok := f.nodes[nodeID]
	if !ok {
		return nil, apperror.NewNotFound("location node", nodeID)
	}
	return n, nil
}

func (f *fakeTree) Ancestors(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error) {
	var out []*locations.LocationNode
	for _, n := range f.nodes {
		if node.IsDescendantOf(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lft < out[j].Lft })
	return out, nil
}

func (f *fakeTree) Descendants(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error) {
	var out []*locations.LocationNode
	for _, n := range f.nodes {
		if n.IsDescendantOf(node) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lft < out[j].Lft })
	return out, nil
}

func (f *fakeTree) GetUnitDetail(ctx context.Context, nodeID id.ID) (*locations.UnitDetail, error) {
	d, ok := f.units[nodeID]
	if !ok {
		return nil, apperror.NewNotFound("unit detail", nodeID)
	}
	return d, nil
}

func (f *fakeTree) SaveUnitDetail(ctx context.Context, d *locations.UnitDetail) error {
	f.units[d.NodeID] = d
	return nil
}

type fakeOwnerRepo struct {
	owners  map[id.ID]*PropertyOwner // by node
	tenants map[id.ID]*PropertyTenant
}

func newFakeOwnerRepo() *fakeOwnerRepo {
	return &fakeOwnerRepo{
		owners:  make(map[id.ID]*PropertyOwner),
		tenants: make(map[id.ID]*PropertyTenant),
	}
}

func (r *fakeOwnerRepo) InsertOwner(ctx context.Context, o *PropertyOwner) error {
	r.owners[o.NodeID] = o
	return nil
}

func (r *fakeOwnerRepo) GetOwnerByNode(ctx context.Context, nodeID id.ID) (*PropertyOwner, error) {
	o, ok := r.owners[nodeID]
	if !ok || o.IsDeleted {
		return nil, apperror.NewNotFound("property owner", nodeID)
	}
	return o, nil
}

func (r *fakeOwnerRepo) GetOwnersByNodes(ctx context.Context, nodeIDs []id.ID) ([]*PropertyOwner, error) {
	var out []*PropertyOwner
	for _, nid := range nodeIDs {
		if o, ok := r.owners[nid]; ok && !o.IsDeleted {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOwnerRepo) ListByOwner(ctx context.Context, owner OwnerRef, filter domain.ListFilter) (*domain.ListResult[*PropertyOwner], error) {
	var out []*PropertyOwner
	for _, o := range r.owners {
		if !o.IsDeleted && o.Owner().Equal(owner) {
			out = append(out, o)
		}
	}
	return &domain.ListResult[*PropertyOwner]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeOwnerRepo) HardDeleteOwnerByNode(ctx context.Context, nodeID id.ID) (bool, error) {
	if _, ok := r.owners[nodeID]; !ok {
		return false, nil
	}
	delete(r.owners, nodeID)
	return true, nil
}

func (r *fakeOwnerRepo) InsertTenant(ctx context.Context, t *PropertyTenant) error {
	r.tenants[t.NodeID] = t
	return nil
}

func (r *fakeOwnerRepo) GetTenantByNode(ctx context.Context, nodeID id.ID) (*PropertyTenant, error) {
	t, ok := r.tenants[nodeID]
	if !ok || t.IsDeleted {
		return nil, apperror.NewNotFound("property tenant", nodeID)
	}
	return t, nil
}

func (r *fakeOwnerRepo) UpdateTenant(ctx context.Context, t *PropertyTenant) error {
	r.tenants[t.NodeID] = t
	return nil
}

type fakeDirectory struct{}

func (fakeDirectory) OwnerDisplayName(ctx context.Context, owner OwnerRef) (string, error) {
	return "Jane Mwangi", nil
}

// --- Fixture ---

type fixture struct {
	svc  *Service
	repo *fakeOwnerRepo
	tree *fakeTree

	projectID id.ID
	blockID   id.ID
	floorID   id.ID
	unitAID   id.ID
	unitBID   id.ID
}

// newFixture builds project > block > floor > (unit A, unit B) with the
// matching nested-set intervals.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)

	mk := func(name string, nt locations.NodeType, lft, rght int) *locations.LocationNode {
		return &locations.LocationNode{
			Base: entity.NewBase(), Name: name, NodeType: nt,
			TreeID: 1, Lft: lft, Rght: rght,
		}
	}
	project := mk("Riverside Towers", locations.NodeProject, 1, 12)
	block := mk("Block A", locations.NodeBlock, 2, 9)
	floor := mk("Floor 0", locations.NodeFloor, 3, 8)
	unitA := mk("A-001", locations.NodeUnit, 4, 5)
	unitB := mk("A-002", locations.NodeUnit, 6, 7)

	tree := &fakeTree{
		nodes: map[id.ID]*locations.LocationNode{
			project.ID: project, block.ID: block, floor.ID: floor,
			unitA.ID: unitA, unitB.ID: unitB,
		},
		units: map[id.ID]*locations.UnitDetail{
			unitA.ID: {NodeID: unitA.ID, Status: locations.UnitAvailable, ManagementMode: locations.ServiceOnly},
			unitB.ID: {NodeID: unitB.ID, Status: locations.UnitAvailable, ManagementMode: locations.ServiceOnly},
		},
	}
	repo := newFakeOwnerRepo()
	validator := NewValidator(repo, tree, fakeDirectory{})
	svc := NewService(repo, tree, validator, fakeTxManager{}, log)

	return &fixture{
		svc: svc, repo: repo, tree: tree,
		projectID: project.ID, blockID: block.ID, floorID: floor.ID,
		unitAID: unitA.ID, unitBID: unitB.ID,
	}
}

func userRef() OwnerRef    { return OwnerRef{Type: OwnerUser, ID: id.New()} }
func companyRef() OwnerRef { return OwnerRef{Type: OwnerCompany, ID: id.New()} }

func TestAssignOwner(t *testing.T) {
	f := newFixture(t)
	owner := userRef()

	row, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: owner})
	require.NoError(t, err)
	assert.Equal(t, f.unitAID, row.NodeID)
	assert.Equal(t, owner, row.Owner())
	assert.False(t, row.StartDate.IsZero(), "start date defaults to now")
}

func TestAssignIdenticalOwnerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := userRef()

	first, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: owner})
	require.NoError(t, err)

	second, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: owner})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-assigning the same owner returns the existing row")
}

func TestAssignConflictsOnNode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: userRef()})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: userRef()})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOwnershipConflict, appErr.Code)
}

func TestAssignConflictsOnAncestor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.blockID, Owner: userRef()})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: userRef()})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOwnershipConflict, appErr.Code)
}

func TestAssignConflictsOnDescendant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: userRef()})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), AssignInput{NodeID: f.projectID, Owner: companyRef()})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOwnershipConflict, appErr.Code)
}

func TestAssignSameOwnerOnAncestorPasses(t *testing.T) {
	f := newFixture(t)
	owner := userRef()

	_, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.blockID, Owner: owner})
	require.NoError(t, err)

	// The same party may hold a node and a descendant.
	_, err = f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: owner})
	require.NoError(t, err)
}

func TestRevokeFreesTheNode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: userRef()})
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(context.Background(), f.unitAID))

	_, err = f.svc.GetOwner(context.Background(), f.unitAID)
	assert.True(t, apperror.IsNotFound(err))

	// A different party can take the node after revocation.
	_, err = f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitAID, Owner: companyRef()})
	require.NoError(t, err)
}

func TestRevokeWithoutOwner(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Revoke(context.Background(), f.unitAID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestBulkAssign(t *testing.T) {
	f := newFixture(t)
	owner := companyRef()

	created, err := f.svc.BulkAssign(context.Background(), f.projectID, owner, []BulkTarget{
		{NodeType: locations.NodeUnit, NodeID: f.unitAID},
		{NodeType: locations.NodeUnit, NodeID: f.unitBID},
	}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestBulkAssignAllOrNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Assign(context.Background(), AssignInput{NodeID: f.unitBID, Owner: userRef()})
	require.NoError(t, err)

	_, err = f.svc.BulkAssign(context.Background(), f.projectID, companyRef(), []BulkTarget{
		{NodeType: locations.NodeUnit, NodeID: f.unitAID},
		{NodeType: locations.NodeUnit, NodeID: f.unitBID}, // taken
	}, time.Time{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "errors")

	// The valid pair must not have been written either.
	_, err = f.svc.GetOwner(context.Background(), f.unitAID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestBulkAssignRejectsNonAssignableTypes(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.BulkAssign(context.Background(), f.projectID, userRef(), []BulkTarget{
		{NodeType: locations.NodeBlock, NodeID: f.blockID},
	}, time.Time{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestBulkAssignRequiresProjectRoot(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.BulkAssign(context.Background(), f.blockID, userRef(), []BulkTarget{
		{NodeType: locations.NodeUnit, NodeID: f.unitAID},
	}, time.Time{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAssignTenant(t *testing.T) {
	f := newFixture(t)

	row, err := f.svc.AssignTenant(context.Background(), AssignTenantInput{
		NodeID: f.unitAID, TenantID: id.New(),
	})
	require.NoError(t, err)
	assert.False(t, row.LeaseStart.IsZero())

	d, err := f.tree.GetUnitDetail(context.Background(), f.unitAID)
	require.NoError(t, err)
	assert.Equal(t, locations.UnitRented, d.Status)
}

func TestAssignTenantOccupiedUnit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AssignTenant(context.Background(), AssignTenantInput{NodeID: f.unitAID, TenantID: id.New()})
	require.NoError(t, err)

	_, err = f.svc.AssignTenant(context.Background(), AssignTenantInput{NodeID: f.unitAID, TenantID: id.New()})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestAssignTenantToNonUnit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AssignTenant(context.Background(), AssignTenantInput{NodeID: f.blockID, TenantID: id.New()})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReleaseTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AssignTenant(context.Background(), AssignTenantInput{NodeID: f.unitAID, TenantID: id.New()})
	require.NoError(t, err)

	require.NoError(t, f.svc.ReleaseTenant(context.Background(), f.unitAID))

	d, err := f.tree.GetUnitDetail(context.Background(), f.unitAID)
	require.NoError(t, err)
	assert.Equal(t, locations.UnitAvailable, d.Status)

	// The tenancy row is closed; a new tenant can move in.
	_, err = f.svc.AssignTenant(context.Background(), AssignTenantInput{NodeID: f.unitAID, TenantID: id.New()})
	require.NoError(t, err)
}

func TestOwnerRefValidate(t *testing.T) {
	assert.Error(t, OwnerRef{Type: "partnership", ID: id.New()}.Validate())
	assert.Error(t, OwnerRef{Type: OwnerUser}.Validate())
	assert.NoError(t, OwnerRef{Type: OwnerCompany, ID: id.New()}.Validate())
}
