package service

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/model"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeConvRepo 每个方法在一把锁内完成，对应存储层的单文档原子更新
type fakeConvRepo struct {
	mu        sync.Mutex
	convs     map[primitive.ObjectID]*model.Conversation
	appendErr error

	// beforeCreate 在插入前执行，用于模拟并发写入
	beforeCreate func()
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[primitive.ObjectID]*model.Conversation)}
}

func cloneConv(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	if c.UnreadCounts != nil {
		cp.UnreadCounts = make(map[string]int64, len(c.UnreadCounts))
		for k, v := range c.UnreadCounts {
			cp.UnreadCounts[k] = v
		}
	}
	if c.LastMessage != nil {
		id := *c.LastMessage
		cp.LastMessage = &id
	}
	return &cp
}

func (f *fakeConvRepo) put(c *model.Conversation) *model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.PairKey == "" && len(c.Participants) == 2 {
		c.PairKey = model.PairKey(c.Participants[0], c.Participants[1])
	}
	f.convs[c.ID] = cloneConv(c)
	return c
}

func (f *fakeConvRepo) get(id primitive.ObjectID) *model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.convs[id]; ok {
		return cloneConv(c)
	}
	return nil
}

func (f *fakeConvRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.convs)
}

func (f *fakeConvRepo) CreateConversation(_ context.Context, conv *model.Conversation) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.PairKey == conv.PairKey {
			return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
		}
	}
	if conv.ID.IsZero() {
		conv.ID = primitive.NewObjectID()
	}
	f.convs[conv.ID] = cloneConv(conv)
	return nil
}

func (f *fakeConvRepo) GetConversation(_ context.Context, convID primitive.ObjectID) (*model.Conversation, error) {
	return f.get(convID), nil
}

func (f *fakeConvRepo) GetConversationByPairKey(_ context.Context, pairKey string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.PairKey == pairKey {
			return cloneConv(c), nil
		}
	}
	return nil, nil
}

func (f *fakeConvRepo) ReopenRequest(_ context.Context, convID primitive.ObjectID, requesterID, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[convID]
	if !ok || c.Status != model.StatusRejected {
		return false, nil
	}
	c.Status = model.StatusPending
	c.Initiator = requesterID
	c.RequestMessage = message
	c.RemindedAt = nil
	c.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeConvRepo) ResolveRequest(_ context.Context, convID primitive.ObjectID, decision model.ConversationStatus, participants []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[convID]
	if !ok || c.Status != model.StatusPending {
		return false, nil
	}
	c.Status = decision
	c.UpdatedAt = time.Now()
	if decision == model.StatusAccepted {
		if c.UnreadCounts == nil {
			c.UnreadCounts = map[string]int64{}
		}
		for _, p := range participants {
			c.UnreadCounts[p] += 0
		}
	}
	return true, nil
}

func (f *fakeConvRepo) AppendMessage(_ context.Context, convID primitive.ObjectID, msgID primitive.ObjectID, recipientID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return false, f.appendErr
	}
	c, ok := f.convs[convID]
	if !ok || c.Status != model.StatusAccepted {
		return false, nil
	}
	id := msgID
	c.LastMessage = &id
	c.UpdatedAt = time.Now()
	if c.UnreadCounts == nil {
		c.UnreadCounts = map[string]int64{}
	}
	c.UnreadCounts[recipientID]++
	return true, nil
}

func (f *fakeConvRepo) ResetUnread(_ context.Context, convID primitive.ObjectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.convs[convID]; ok {
		if c.UnreadCounts == nil {
			c.UnreadCounts = map[string]int64{}
		}
		c.UnreadCounts[userID] = 0
	}
	return nil
}

func (f *fakeConvRepo) list(match func(c *model.Conversation) bool, skip, limit int64) ([]*model.Conversation, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*model.Conversation, 0)
	for _, c := range f.convs {
		if match(c) {
			all = append(all, cloneConv(c))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	total := int64(len(all))
	if skip >= total {
		return []*model.Conversation{}, total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total
}

func (f *fakeConvRepo) ListPendingReceived(_ context.Context, userID string, skip, limit int64) ([]*model.Conversation, int64, error) {
	list, total := f.list(func(c *model.Conversation) bool {
		return c.HasParticipant(userID) && c.Initiator != userID && c.Status == model.StatusPending
	}, skip, limit)
	return list, total, nil
}

func (f *fakeConvRepo) ListActive(_ context.Context, userID string, skip, limit int64) ([]*model.Conversation, int64, error) {
	list, total := f.list(func(c *model.Conversation) bool {
		return c.HasParticipant(userID) && c.Status == model.StatusAccepted
	}, skip, limit)
	return list, total, nil
}

func (f *fakeConvRepo) ListStalePending(_ context.Context, before time.Time, limit int64) ([]*model.Conversation, error) {
	list, _ := f.list(func(c *model.Conversation) bool {
		return c.Status == model.StatusPending && c.UpdatedAt.Before(before) && c.RemindedAt == nil
	}, 0, limit)
	return list, nil
}

func (f *fakeConvRepo) MarkReminded(_ context.Context, convID primitive.ObjectID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[convID]
	if !ok || c.Status != model.StatusPending || c.RemindedAt != nil {
		return false, nil
	}
	t := at
	c.RemindedAt = &t
	return true, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*model.Message
	seq      time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[primitive.ObjectID]*model.Message),
		seq:      time.Now(),
	}
}

func (f *fakeMessageRepo) SaveMessage(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	// 保证创建时间严格递增，便于断言顺序
	f.seq = f.seq.Add(time.Millisecond)
	msg.CreatedAt = f.seq
	cp := *msg
	f.messages[msg.ID] = &cp
	return nil
}

func (f *fakeMessageRepo) DeleteMessage(_ context.Context, msgID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, msgID)
	return nil
}

func (f *fakeMessageRepo) GetMessagesByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*model.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := f.messages[id]; ok {
			cp := *m
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (f *fakeMessageRepo) GetHistory(_ context.Context, convID primitive.ObjectID, skip, limit int64) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*model.Message, 0)
	for _, m := range f.messages {
		if m.Conversation == convID {
			cp := *m
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if skip >= total {
		return []*model.Message{}, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], nil
}

func (f *fakeMessageRepo) MarkReadFromOthers(_ context.Context, convID primitive.ObjectID, viewerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.messages {
		if m.Conversation == convID && m.Sender != viewerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) byConversation(convID primitive.ObjectID) []*model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*model.Message, 0)
	for _, m := range f.messages {
		if m.Conversation == convID {
			cp := *m
			res = append(res, &cp)
		}
	}
	return res
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	f.users[user.ID.Hex()] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserById(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUserByIds(_ context.Context, ids []string) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			cp := *u
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "full_name":
			u.FullName = v.(string)
		case "headline":
			u.Headline = v.(string)
		case "company":
			u.Company = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "graduation_year":
			u.GraduationYear = v.(int)
		case "avatar_key":
			u.AvatarKey = v.(string)
		}
	}
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id string, avatarKey string) error {
	return f.UpdateProfile(ctx, id, bson.M{"avatar_key": avatarKey})
}

func (f *fakeUserRepo) UpdateVerified(_ context.Context, id string, verified bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return false, nil
	}
	u.IsVerified = verified
	return true, nil
}

type emitted struct {
	UserID  string
	Event   string
	Payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	online map[string]bool
	events []emitted
}

func newFakeEmitter(online ...string) *fakeEmitter {
	f := &fakeEmitter{online: make(map[string]bool)}
	for _, id := range online {
		f.online[id] = true
	}
	return f
}

func (f *fakeEmitter) EmitToUser(userID, event string, payload any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online[userID] {
		return false
	}
	f.events = append(f.events, emitted{UserID: userID, Event: event, Payload: payload})
	return true
}

func (f *fakeEmitter) sent() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.events...)
}

type notified struct {
	UserID  string
	Subject string
	HTML    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notified
}

func (f *fakeNotifier) NotifyUser(_ context.Context, userID, subject, htmlBody string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notified{UserID: userID, Subject: subject, HTML: htmlBody})
}

func (f *fakeNotifier) sent() []notified {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notified(nil), f.calls...)
}

type fakeIdentity struct {
	infos map[string]*dto.UserSimpleDTO
	err   error
}

func (f *fakeIdentity) GetUserSimpleInfos(_ context.Context, ids []string) (map[string]*dto.UserSimpleDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[string]*dto.UserSimpleDTO)
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			res[id] = info
		}
	}
	return res, nil
}

type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	mgets  int
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeKV) GetValue(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeKV) MGetValues(_ context.Context, keys ...string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mgets++
	res := make([]string, len(keys))
	for i, k := range keys {
		res[i] = f.values[k]
	}
	return res, nil
}

func (f *fakeKV) SetWithExpiration(_ context.Context, key string, value string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.ttls[key] = expiration
	return nil
}

func (f *fakeKV) DeleteKey(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeKV) TryLock(_ context.Context, key string, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeKV) UnLock(_ context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[key] == value {
		delete(f.values, key)
	}
	return nil
}

type fakeStorage struct {
	uploaded map[string]int64
	deleted  []string
	failPut  bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: make(map[string]int64)}
}

func (f *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, size int64, _ string) (string, error) {
	if f.failPut {
		return "", errors.New("minio down")
	}
	_, _ = io.Copy(io.Discard, reader)
	f.uploaded[objectName] = size
	return objectName, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, objectName string) error {
	f.deleted = append(f.deleted, objectName)
	return nil
}

func (f *fakeStorage) GetPublicURL(objectName string) string {
	return "https://files.test/alumnet/" + objectName
}

func newUser(name, role string) *model.User {
	return &model.User{
		ID:        primitive.NewObjectID(),
		Email:     name + "@alumnet.test",
		FullName:  name,
		Role:      role,
		CreatedAt: time.Now(),
	}
}
