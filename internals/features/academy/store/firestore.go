// file: internals/features/academy/store/firestore.go
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	helper "academy_backend/internals/helpers"
)

/*
FirestoreStore keeps one subtree per branch:

	tenants/{tenant}/branches/{branch}/classes/{class}
	                                  /sessions/{session}
	                                  /enrollments/{enrollment}
	                                  /attendance/{session}_{client}
	                                  /clients/{client}
	                                  /activities/{activity}
*/
type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

// NewFirestoreClient builds a client through the firebase admin app.
// An empty credentialsFile falls back to application default credentials.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}

func (s *FirestoreStore) branch(scope Scope) *firestore.DocumentRef {
	return s.Client.Collection("tenants").Doc(scope.TenantID.String()).
		Collection("branches").Doc(scope.BranchID.String())
}

func (s *FirestoreStore) sessions(scope Scope) *firestore.CollectionRef {
	return s.branch(scope).Collection("sessions")
}

func (s *FirestoreStore) sessionRef(key SessionKey) *firestore.DocumentRef {
	return s.sessions(key.Scope).Doc(key.SessionID.String())
}

func attendanceDocID(k AttendanceKey) string {
	return k.SessionID.String() + "_" + k.ClientID.String()
}

// getExisting reads refs and returns only the snapshots that exist.
func getExisting(snaps []*firestore.DocumentSnapshot) []*firestore.DocumentSnapshot {
	out := snaps[:0]
	for _, sn := range snaps {
		if sn != nil && sn.Exists() {
			out = append(out, sn)
		}
	}
	return out
}

func decodeSession(scope Scope, sn *firestore.DocumentSnapshot) (scheduleModel.ClassSessionModel, error) {
	var d sessionDoc
	if err := sn.DataTo(&d); err != nil {
		return scheduleModel.ClassSessionModel{}, fmt.Errorf("decode session %s: %w", sn.Ref.ID, err)
	}
	return sessionFromDoc(scope, sn.Ref.ID, d)
}

/* =========================
   Transactions
========================= */

type firestoreTx struct {
	s  *FirestoreStore
	tx *firestore.Transaction
}

func (s *FirestoreStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(&firestoreTx{s: s, tx: tx})
	})
}

func (t *firestoreTx) GetSession(key SessionKey) (*scheduleModel.ClassSessionModel, error) {
	snaps, err := t.tx.GetAll([]*firestore.DocumentRef{t.s.sessionRef(key)})
	if err != nil {
		return nil, err
	}
	snaps = getExisting(snaps)
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	out, err := decodeSession(key.Scope, snaps[0])
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *firestoreTx) SetEnrolledCount(key SessionKey, count int, at time.Time) error {
	return t.tx.Update(t.s.sessionRef(key), []firestore.Update{
		{Path: "enrolledCount", Value: clampCount(count)},
		{Path: "updatedAt", Value: at},
	})
}

func (t *firestoreTx) PutAttendanceRecord(rec *attendanceModel.AttendanceRecordModel) error {
	k := recordKey(rec)
	ref := t.s.branch(k.Scope).Collection("attendance").Doc(attendanceDocID(k))
	return t.tx.Set(ref, attendanceToDoc(rec))
}

func (t *firestoreTx) PutAttendanceSnapshot(key SessionKey, snap Snapshot) error {
	return t.tx.Update(t.s.sessionRef(key), []firestore.Update{
		{Path: "attendanceRecorded", Value: true},
		{Path: "attendanceSnapshot", Value: rosterToDocs(snap.Roster)},
		{Path: "presentCount", Value: snap.PresentCount},
		{Path: "absentCount", Value: snap.AbsentCount},
		{Path: "updatedAt", Value: snap.At},
	})
}

func (t *firestoreTx) SetExtras(key SessionKey, clientIDs []uuid.UUID, at time.Time) error {
	return t.tx.Update(t.s.sessionRef(key), []firestore.Update{
		{Path: "extraClientIds", Value: []string(scheduleModel.ExtraArray(clientIDs))},
		{Path: "updatedAt", Value: at},
	})
}

/* =========================
   Sessions
========================= */

func (s *FirestoreStore) GetSession(ctx context.Context, key SessionKey) (*scheduleModel.ClassSessionModel, error) {
	snaps, err := s.Client.GetAll(ctx, []*firestore.DocumentRef{s.sessionRef(key)})
	if err != nil {
		return nil, err
	}
	snaps = getExisting(snaps)
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	out, err := decodeSession(key.Scope, snaps[0])
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *FirestoreStore) collectSessions(ctx context.Context, scope Scope, q firestore.Query) ([]scheduleModel.ClassSessionModel, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []scheduleModel.ClassSessionModel
	for {
		sn, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := decodeSession(scope, sn)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *FirestoreStore) ListSessions(ctx context.Context, scope Scope, from, to time.Time) ([]scheduleModel.ClassSessionModel, error) {
	q := s.sessions(scope).
		Where("sessionDate", ">=", calendar.DateOf(from)).
		Where("sessionDate", "<=", calendar.DateOf(to)).
		OrderBy("sessionDate", firestore.Asc)
	return s.collectSessions(ctx, scope, q)
}

func (s *FirestoreStore) FindClassSessions(ctx context.Context, key ClassKey, from, to time.Time) ([]scheduleModel.ClassSessionModel, error) {
	q := s.sessions(key.Scope).
		Where("idClass", "==", key.ClassID.String()).
		Where("sessionDate", ">=", calendar.DateOf(from)).
		Where("sessionDate", "<=", calendar.DateOf(to)).
		OrderBy("sessionDate", firestore.Asc)
	return s.collectSessions(ctx, key.Scope, q)
}

// ApplyEnrolledIncrements commits one chunk in a single transaction so the
// clamp reads current values; writes merge only the touched fields.
func (s *FirestoreStore) ApplyEnrolledIncrements(ctx context.Context, scope Scope, incs []Increment, at time.Time) error {
	if len(incs) == 0 {
		return nil
	}
	if len(incs) > BulkChunkSize {
		return fmt.Errorf("firestore: %d increments exceed the %d-write unit", len(incs), BulkChunkSize)
	}
	refs := make([]*firestore.DocumentRef, 0, len(incs))
	for _, inc := range incs {
		refs = append(refs, s.sessions(scope).Doc(inc.SessionID.String()))
	}

	return s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		for i, sn := range snaps {
			if sn == nil || !sn.Exists() {
				continue
			}
			current := 0
			if v, err := sn.DataAt("enrolledCount"); err == nil {
				if n, ok := v.(int64); ok {
					current = int(n)
				}
			}
			err := tx.Set(refs[i], map[string]any{
				"enrolledCount": clampCount(current + incs[i].Delta),
				"updatedAt":     at,
			}, firestore.MergeAll)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertSessions creates missing session docs. Materialized sessions carry an
// id derived from (class, date), so an existing doc means the slot is taken.
func (s *FirestoreStore) InsertSessions(ctx context.Context, sessions []scheduleModel.ClassSessionModel) (int, error) {
	inserted := 0
	for start := 0; start < len(sessions); start += BulkChunkSize {
		end := start + BulkChunkSize
		if end > len(sessions) {
			end = len(sessions)
		}
		chunk := sessions[start:end]

		refs := make([]*firestore.DocumentRef, 0, len(chunk))
		for i := range chunk {
			if chunk[i].ClassSessionID == uuid.Nil {
				chunk[i].ClassSessionID = uuid.New()
			}
			scope := Scope{TenantID: chunk[i].ClassSessionTenantID, BranchID: chunk[i].ClassSessionBranchID}
			refs = append(refs, s.sessions(scope).Doc(chunk[i].ClassSessionID.String()))
		}

		n := 0
		err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			n = 0
			snaps, err := tx.GetAll(refs)
			if err != nil {
				return err
			}
			for i, sn := range snaps {
				if sn != nil && sn.Exists() {
					continue
				}
				doc, err := sessionToDoc(&chunk[i])
				if err != nil {
					return err
				}
				now := time.Now()
				doc.CreatedAt, doc.UpdatedAt = now, now
				if err := tx.Create(refs[i], doc); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

/* =========================
   Classes / enrollments / records
========================= */

func (s *FirestoreStore) GetClass(ctx context.Context, key ClassKey) (*scheduleModel.ClassModel, error) {
	ref := s.branch(key.Scope).Collection("classes").Doc(key.ClassID.String())
	snaps, err := s.Client.GetAll(ctx, []*firestore.DocumentRef{ref})
	if err != nil {
		return nil, err
	}
	snaps = getExisting(snaps)
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	var d classDoc
	if err := snaps[0].DataTo(&d); err != nil {
		return nil, err
	}
	out := classFromDoc(key.Scope, ref.ID, d)
	return &out, nil
}

func (s *FirestoreStore) ListClasses(ctx context.Context, scope Scope, activeOnly bool) ([]scheduleModel.ClassModel, error) {
	q := s.branch(scope).Collection("classes").Query
	if activeOnly {
		q = q.Where("active", "==", true)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []scheduleModel.ClassModel
	for {
		sn, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var d classDoc
		if err := sn.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, classFromDoc(scope, sn.Ref.ID, d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassID.String() < out[j].ClassID.String() })
	return out, nil
}

func (s *FirestoreStore) ListEnrollments(ctx context.Context, scope Scope, f EnrollmentFilter) ([]enrollmentModel.EnrollmentModel, error) {
	q := s.branch(scope).Collection("enrollments").Query
	if f.ClassID != nil {
		q = q.Where("idClass", "==", f.ClassID.String())
	}
	if f.SessionID != nil {
		q = q.Where("idSession", "==", f.SessionID.String())
	}
	if f.ClientID != nil {
		q = q.Where("idClient", "==", f.ClientID.String())
	}
	// one disjunction per query; types are filtered below
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		q = q.Where("status", "in", statuses)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []enrollmentModel.EnrollmentModel
	for {
		sn, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var d enrollmentDoc
		if err := sn.DataTo(&d); err != nil {
			return nil, err
		}
		e := enrollmentFromDoc(scope, sn.Ref.ID, d)
		if !containsType(f.Types, e.EnrollmentType) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrollmentCreatedAt.Equal(out[j].EnrollmentCreatedAt) {
			return out[i].EnrollmentCreatedAt.Before(out[j].EnrollmentCreatedAt)
		}
		return out[i].EnrollmentID.String() < out[j].EnrollmentID.String()
	})
	return out, nil
}

func (s *FirestoreStore) ListAttendanceRecords(ctx context.Context, scope Scope, f AttendanceFilter) ([]attendanceModel.AttendanceRecordModel, int64, error) {
	q := s.branch(scope).Collection("attendance").Query
	if f.ClientID != nil {
		q = q.Where("idClient", "==", f.ClientID.String())
	}
	if f.SessionID != nil {
		q = q.Where("idSession", "==", f.SessionID.String())
	}
	if f.From != nil {
		q = q.Where("sessionDate", ">=", calendar.DateOf(*f.From))
	}
	if f.To != nil {
		q = q.Where("sessionDate", "<=", calendar.DateOf(*f.To))
	}
	q = q.OrderBy("sessionDate", firestore.Asc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var all []attendanceModel.AttendanceRecordModel
	for {
		sn, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		var d attendanceDoc
		if err := sn.DataTo(&d); err != nil {
			return nil, 0, err
		}
		all = append(all, attendanceFromDoc(scope, sn.Ref.ID, d))
	}

	total := int64(len(all))
	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return nil, total, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (s *FirestoreStore) ListScopes(ctx context.Context) ([]Scope, error) {
	iter := s.Client.CollectionGroup("branches").Documents(ctx)
	defer iter.Stop()

	var out []Scope
	for {
		sn, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		tenant := sn.Ref.Parent.Parent
		if tenant == nil {
			continue
		}
		scope := Scope{TenantID: parseID(tenant.ID), BranchID: parseID(sn.Ref.ID)}
		if scope.Valid() {
			out = append(out, scope)
		}
	}
	return out, nil
}

/* =========================
   Directory
========================= */

func (s *FirestoreStore) LookupClients(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]directoryModel.ClientModel, error) {
	out := make(map[uuid.UUID]directoryModel.ClientModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.branch(scope).Collection("clients").Doc(id.String()))
	}
	snaps, err := s.Client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, sn := range getExisting(snaps) {
		var d clientDoc
		if err := sn.DataTo(&d); err != nil {
			return nil, err
		}
		c := clientFromDoc(scope, sn.Ref.ID, d)
		out[c.ClientID] = c
	}
	return out, nil
}

// SearchClients does a prefix match on name; tag matches are exact.
func (s *FirestoreStore) SearchClients(ctx context.Context, scope Scope, query string, limit int) ([]directoryModel.ClientModel, error) {
	col := s.branch(scope).Collection("clients")
	term := strings.TrimSpace(query)

	queries := []firestore.Query{col.Where("active", "==", true).OrderBy("name", firestore.Asc)}
	if term != "" {
		queries = []firestore.Query{
			col.Where("name", ">=", term).Where("name", "<=", term+"\uf8ff").OrderBy("name", firestore.Asc),
			col.Where("tag", "==", term),
		}
	}

	seen := map[uuid.UUID]bool{}
	var out []directoryModel.ClientModel
	for _, q := range queries {
		if limit > 0 {
			q = q.Limit(limit)
		}
		iter := q.Documents(ctx)
		for {
			sn, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, err
			}
			var d clientDoc
			if err := sn.DataTo(&d); err != nil {
				iter.Stop()
				return nil, err
			}
			c := clientFromDoc(scope, sn.Ref.ID, d)
			if !c.ClientIsActive || seen[c.ClientID] {
				continue
			}
			seen[c.ClientID] = true
			out = append(out, c)
		}
		iter.Stop()
	}
	sort.Slice(out, func(i, j int) bool { return helper.LessName(out[i].ClientName, out[j].ClientName) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FirestoreStore) ActivityNames(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.branch(scope).Collection("activities").Doc(id.String()))
	}
	snaps, err := s.Client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, sn := range getExisting(snaps) {
		var d activityDoc
		if err := sn.DataTo(&d); err != nil {
			return nil, err
		}
		out[parseID(sn.Ref.ID)] = d.Name
	}
	return out, nil
}

var (
	_ Store     = (*FirestoreStore)(nil)
	_ Directory = (*FirestoreStore)(nil)
)
