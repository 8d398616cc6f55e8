package contracts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-app/database"
	"booking-app/internal/domain/bookings"
	"booking-app/internal/domain/chat"
	"booking-app/internal/domain/contracts"
	"booking-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// One in-memory database, one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	database.DB = db
	return db
}

func seedBooking(t *testing.T, db *gorm.DB) (*bookings.Booking, *users.User, *users.User) {
	t.Helper()

	artist := users.User{Name: "DJ", Lastname: "Nova", Email: "artist@example.com", Role: users.RoleArtist}
	promoter := users.User{Name: "Sky", Lastname: "Line", Email: "promoter@example.com", Role: users.RolePromoter}
	if err := db.Create(&artist).Error; err != nil {
		t.Fatalf("Failed to create artist: %v", err)
	}
	if err := db.Create(&promoter).Error; err != nil {
		t.Fatalf("Failed to create promoter: %v", err)
	}

	b := bookings.Booking{
		ArtistID:          artist.ID,
		PromoterID:        promoter.ID,
		ArtistName:        "DJ Nova",
		PromoterName:      "Skyline Events",
		EventName:         "Harbour Festival",
		EventDate:         time.Now().UTC().AddDate(0, 2, 0),
		EventTime:         "21:00",
		VenueName:         "Harbour Arena",
		VenueCity:         "Mumbai",
		FeeAmount:         50000,
		FeeCurrency:       "INR",
		CommissionPercent: 10,
		Status:            bookings.StatusReadyToContract,
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if err := db.Create(&chat.Conversation{BookingID: b.ID}).Error; err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}
	return &b, &artist, &promoter
}

func newRouter(userID uint, role string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	})
	r.POST("/bookings/:id/contract/initiate", InitiateContract)
	r.GET("/bookings/:id/contract", GetContract)
	r.POST("/contracts/:id/review", ReviewContract)
	r.POST("/contracts/:id/edit-requests/:reqId/respond", RespondToEditRequest)
	r.POST("/contracts/:id/accept", AcceptContract)
	r.POST("/contracts/:id/sign", SignContract)
	r.GET("/contracts/:id/versions", ListContractVersions)
	r.GET("/contracts/:id/pdf", DownloadContractDocument)
	r.POST("/contracts/check-deadlines", CheckDeadlines)
	r.POST("/admin/contracts/:id/review", AdminReviewContract)
	return r
}

func do(t *testing.T, u *users.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	role := users.RoleAdmin
	userID := uint(0)
	if u != nil {
		role = u.Role
		userID = u.ID
	}
	newRouter(userID, role).ServeHTTP(w, req)
	return w
}

func adminUser(t *testing.T, db *gorm.DB) *users.User {
	t.Helper()
	admin := users.User{Name: "Ada", Lastname: "Min", Email: "admin@example.com", Role: users.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	return &admin
}

func decodeContract(t *testing.T, w *httptest.ResponseRecorder) ContractResponse {
	t.Helper()
	var resp ContractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode contract response: %v", err)
	}
	return resp
}

func initiate(t *testing.T, b *bookings.Booking, u *users.User) *contracts.Contract {
	t.Helper()
	w := do(t, u, "POST", "/bookings/"+b.ID+"/contract/initiate", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Initiate failed with %d: %s", w.Code, w.Body.String())
	}
	return decodeContract(t, w).Contract
}

func TestInitiateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	b, _, promoter := seedBooking(t, db)

	first := initiate(t, b, promoter)
	if first.CurrentVersion != 1 {
		t.Errorf("Expected version 1, got %d", first.CurrentVersion)
	}

	w := do(t, promoter, "POST", "/bookings/"+b.ID+"/contract/initiate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Second initiate expected 200, got %d: %s", w.Code, w.Body.String())
	}
	second := decodeContract(t, w).Contract
	if second.ID != first.ID {
		t.Errorf("Expected same contract id, got %s vs %s", second.ID, first.ID)
	}
	if second.CurrentVersion != 1 {
		t.Errorf("Re-initiation must not bump the version, got %d", second.CurrentVersion)
	}

	var versionCount int64
	db.Model(&contracts.ContractVersion{}).Where("contract_id = ?", first.ID).Count(&versionCount)
	if versionCount != 1 {
		t.Errorf("Expected exactly one version row, got %d", versionCount)
	}

	var booking bookings.Booking
	db.First(&booking, "id = ?", b.ID)
	if booking.Status != bookings.StatusContracting {
		t.Errorf("Expected booking in contracting, got %s", booking.Status)
	}
}

func TestInitiateUnknownBooking(t *testing.T) {
	db := setupDB(t)
	_, _, promoter := seedBooking(t, db)

	w := do(t, promoter, "POST", "/bookings/00000000-0000-0000-0000-000000000000/contract/initiate", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestInitiateByStrangerForbidden(t *testing.T) {
	db := setupDB(t)
	b, _, _ := seedBooking(t, db)
	stranger := users.User{Name: "No", Lastname: "Body", Email: "x@example.com", Role: users.RoleArtist}
	db.Create(&stranger)

	w := do(t, &stranger, "POST", "/bookings/"+b.ID+"/contract/initiate", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReviewAcceptAsIsIsOneWay(t *testing.T) {
	db := setupDB(t)
	b, artist, _ := seedBooking(t, db)
	ct := initiate(t, b, artist)

	w := do(t, artist, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})
	if w.Code != http.StatusOK {
		t.Fatalf("Review failed with %d: %s", w.Code, w.Body.String())
	}

	// Repeating a completed stage is a state error, not a no-op.
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Second review expected 400, got %d", w.Code)
	}

	var fresh contracts.Contract
	db.First(&fresh, "id = ?", ct.ID)
	if fresh.ArtistReviewDoneAt == nil {
		t.Error("Expected artist review timestamp")
	}
	if fresh.CurrentVersion != 1 {
		t.Errorf("ACCEPT_AS_IS must not bump the version, got %d", fresh.CurrentVersion)
	}
}

func TestOneEditPerParty(t *testing.T) {
	db := setupDB(t)
	b, artist, promoter := seedBooking(t, db)
	ct := initiate(t, b, promoter)

	propose := ReviewRequest{
		Action:  ActionProposeEdits,
		Changes: json.RawMessage(`{"travel":{"flightClass":"business"}}`),
	}
	w := do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", propose)
	if w.Code != http.StatusOK {
		t.Fatalf("Propose failed with %d: %s", w.Code, w.Body.String())
	}

	var pending contracts.ContractEditRequest
	if err := db.First(&pending, "contract_id = ? AND status = ?", ct.ID, contracts.EditPending).Error; err != nil {
		t.Fatalf("Expected pending edit request: %v", err)
	}

	// The artist cannot propose while another request is pending.
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/review", propose)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Propose with pending request expected 400, got %d", w.Code)
	}

	// Reject it; the promoter's edit stays consumed.
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/edit-requests/"+pending.ID+"/respond",
		RespondRequest{Decision: DecisionReject, ResponseNote: "terms are fine"})
	if w.Code != http.StatusOK {
		t.Fatalf("Reject failed with %d: %s", w.Code, w.Body.String())
	}

	w = do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", propose)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Second proposal by same party expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var fresh contracts.Contract
	db.First(&fresh, "id = ?", ct.ID)
	if !fresh.PromoterEditUsed {
		t.Error("Promoter edit flag must stay consumed after rejection")
	}
	if fresh.CurrentVersion != 1 {
		t.Errorf("Rejection must not create a version, got %d", fresh.CurrentVersion)
	}
}

func TestMilestoneSumValidation(t *testing.T) {
	db := setupDB(t)
	b, _, promoter := seedBooking(t, db)
	ct := initiate(t, b, promoter)

	w := do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{
		Action:  ActionProposeEdits,
		Changes: json.RawMessage(`{"financial":{"milestones":[{"description":"advance","percent":60},{"description":"on completion","percent":30}]}}`),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad milestone sum, got %d", w.Code)
	}
	var resp struct {
		Violations []string `json:"violations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Violations) == 0 {
		t.Errorf("Expected violations list in response, got %s", w.Body.String())
	}

	// A failed validation must not consume the one-time edit.
	var fresh contracts.Contract
	db.First(&fresh, "id = ?", ct.ID)
	if fresh.PromoterEditUsed {
		t.Error("Failed proposal must not consume the edit flag")
	}

	w = do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{
		Action:  ActionProposeEdits,
		Changes: json.RawMessage(`{"financial":{"milestones":[{"description":"advance","percent":60},{"description":"on completion","percent":40}]}}`),
	})
	if w.Code != http.StatusOK {
		t.Errorf("Valid milestones expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLockedFieldProposalRejected(t *testing.T) {
	db := setupDB(t)
	b, _, promoter := seedBooking(t, db)
	ct := initiate(t, b, promoter)

	w := do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{
		Action:  ActionProposeEdits,
		Changes: json.RawMessage(`{"fee":{"amount":99999},"travel":{"flightClass":"business"}}`),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for locked field, got %d: %s", w.Code, w.Body.String())
	}
}

// Full happy path of the negotiation scenario: one edit round, approval,
// both signatures, admin approval.
func TestFullNegotiationScenario(t *testing.T) {
	db := setupDB(t)
	b, artist, promoter := seedBooking(t, db)
	admin := adminUser(t, db)

	ct := initiate(t, b, promoter)
	if ct.CurrentVersion != 1 {
		t.Fatalf("Expected version 1, got %d", ct.CurrentVersion)
	}

	// Artist accepts as is; no version bump.
	w := do(t, artist, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})
	if w.Code != http.StatusOK {
		t.Fatalf("Artist review failed: %s", w.Body.String())
	}

	// Promoter proposes a travel upgrade.
	w = do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{
		Action:  ActionProposeEdits,
		Changes: json.RawMessage(`{"travel":{"flightClass":"business"}}`),
		Note:    "headliner flies business",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Promoter propose failed: %s", w.Body.String())
	}

	var pending contracts.ContractEditRequest
	if err := db.First(&pending, "contract_id = ? AND status = ?", ct.ID, contracts.EditPending).Error; err != nil {
		t.Fatalf("Expected pending request: %v", err)
	}

	var current contracts.Contract
	db.First(&current, "id = ?", ct.ID)
	if current.CurrentVersion != 1 {
		t.Fatalf("Proposal alone must not bump version, got %d", current.CurrentVersion)
	}

	// Requester cannot respond to their own request.
	w = do(t, promoter, "POST", "/contracts/"+ct.ID+"/edit-requests/"+pending.ID+"/respond",
		RespondRequest{Decision: DecisionApprove})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Own-request respond expected 403, got %d", w.Code)
	}

	// Artist approves: version 2, new text.
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/edit-requests/"+pending.ID+"/respond",
		RespondRequest{Decision: DecisionApprove, ResponseNote: "fine by me"})
	if w.Code != http.StatusOK {
		t.Fatalf("Approve failed: %s", w.Body.String())
	}

	db.First(&current, "id = ?", ct.ID)
	if current.CurrentVersion != 2 {
		t.Errorf("Expected version 2 after approval, got %d", current.CurrentVersion)
	}
	if !bytes.Contains([]byte(current.ContractText), []byte("business")) {
		t.Error("Contract text must reflect the approved flight class")
	}

	// Responding twice is a state error.
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/edit-requests/"+pending.ID+"/respond",
		RespondRequest{Decision: DecisionApprove})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Double respond expected 400, got %d", w.Code)
	}

	// Both accept, both sign.
	for _, u := range []*users.User{artist, promoter} {
		w = do(t, u, "POST", "/contracts/"+ct.ID+"/accept", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Accept by %s failed: %s", u.Role, w.Body.String())
		}
	}

	sign := SignRequest{SignatureData: "DJ Nova", SignatureType: contracts.SignatureTyped}
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/sign", sign)
	if w.Code != http.StatusOK {
		t.Fatalf("Artist sign failed: %s", w.Body.String())
	}
	var signResp struct {
		FullyExecuted bool `json:"fullyExecuted"`
	}
	json.Unmarshal(w.Body.Bytes(), &signResp)
	if signResp.FullyExecuted {
		t.Error("First signature must not report fully executed")
	}

	w = do(t, promoter, "POST", "/contracts/"+ct.ID+"/sign",
		SignRequest{SignatureData: "Skyline Events", SignatureType: contracts.SignatureDrawn})
	if w.Code != http.StatusOK {
		t.Fatalf("Promoter sign failed: %s", w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &signResp)
	if !signResp.FullyExecuted {
		t.Error("Second signature must report fully executed")
	}

	db.First(&current, "id = ?", ct.ID)
	if current.Status != contracts.StatusAdminReview {
		t.Errorf("Expected admin_review after both signatures, got %s", current.Status)
	}
	if current.SignedAt == nil {
		t.Error("Expected signedAt stamped")
	}

	// Booking stays pending administrator approval.
	var booking bookings.Booking
	db.First(&booking, "id = ?", b.ID)
	if booking.Status != bookings.StatusContracting {
		t.Errorf("Booking must not be confirmed before admin approval, got %s", booking.Status)
	}

	// Admin approves.
	w = do(t, admin, "POST", "/admin/contracts/"+ct.ID+"/review",
		AdminReviewRequest{Decision: AdminApproved})
	if w.Code != http.StatusOK {
		t.Fatalf("Admin approve failed: %s", w.Body.String())
	}

	db.First(&current, "id = ?", ct.ID)
	if current.Status != contracts.StatusSigned {
		t.Errorf("Expected signed, got %s", current.Status)
	}
	db.First(&booking, "id = ?", b.ID)
	if booking.Status != bookings.StatusConfirmed {
		t.Errorf("Expected booking confirmed, got %s", booking.Status)
	}

	// Monotonic versions: exactly 1..N, and currentVersion == N.
	var versions []contracts.ContractVersion
	db.Where("contract_id = ?", ct.ID).Order("version ASC").Find(&versions)
	for i, v := range versions {
		if v.Version != i+1 {
			t.Errorf("Expected contiguous versions, got %d at index %d", v.Version, i)
		}
	}
	if current.CurrentVersion != len(versions) {
		t.Errorf("currentVersion %d != highest version %d", current.CurrentVersion, len(versions))
	}
}

func TestAcceptRequiresReview(t *testing.T) {
	db := setupDB(t)
	b, artist, _ := seedBooking(t, db)
	ct := initiate(t, b, artist)

	w := do(t, artist, "POST", "/contracts/"+ct.ID+"/accept", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Accept before review expected 400, got %d", w.Code)
	}
}

func TestSignRequiresAcceptance(t *testing.T) {
	db := setupDB(t)
	b, artist, _ := seedBooking(t, db)
	ct := initiate(t, b, artist)

	do(t, artist, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})

	w := do(t, artist, "POST", "/contracts/"+ct.ID+"/sign",
		SignRequest{SignatureData: "x", SignatureType: contracts.SignatureTyped})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Sign before accept expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignByStrangerForbidden(t *testing.T) {
	db := setupDB(t)
	b, artist, _ := seedBooking(t, db)
	ct := initiate(t, b, artist)

	stranger := users.User{Name: "No", Lastname: "Body", Email: "y@example.com", Role: users.RolePromoter}
	db.Create(&stranger)

	w := do(t, &stranger, "POST", "/contracts/"+ct.ID+"/sign",
		SignRequest{SignatureData: "x", SignatureType: contracts.SignatureTyped})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}

func TestDeadlineFinality(t *testing.T) {
	db := setupDB(t)
	b, artist, promoter := seedBooking(t, db)
	ct := initiate(t, b, promoter)

	// Push the deadline into the past.
	db.Model(&contracts.Contract{}).Where("id = ?", ct.ID).
		Update("deadline_at", time.Now().UTC().Add(-time.Hour))

	// Every mutating call fails with a deadline error.
	w := do(t, artist, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Review past deadline expected 400, got %d", w.Code)
	}
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/accept", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Accept past deadline expected 400, got %d", w.Code)
	}
	w = do(t, artist, "POST", "/contracts/"+ct.ID+"/sign",
		SignRequest{SignatureData: "x", SignatureType: contracts.SignatureTyped})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Sign past deadline expected 400, got %d", w.Code)
	}

	// Sweep voids it exactly once.
	w = do(t, promoter, "POST", "/contracts/check-deadlines", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Sweep failed: %s", w.Body.String())
	}
	var sweep struct {
		Voided int `json:"voided"`
	}
	json.Unmarshal(w.Body.Bytes(), &sweep)
	if sweep.Voided != 1 {
		t.Errorf("Expected 1 voided contract, got %d", sweep.Voided)
	}

	var fresh contracts.Contract
	db.First(&fresh, "id = ?", ct.ID)
	if fresh.Status != contracts.StatusVoided {
		t.Errorf("Expected voided, got %s", fresh.Status)
	}

	var booking bookings.Booking
	db.First(&booking, "id = ?", b.ID)
	if booking.Status != bookings.StatusCancelled {
		t.Errorf("Expected booking cancelled, got %s", booking.Status)
	}
	if booking.CancelReason == nil || *booking.CancelReason != bookings.CancelReasonDeadlineExpired {
		t.Errorf("Expected cancel reason %q, got %v", bookings.CancelReasonDeadlineExpired, booking.CancelReason)
	}

	// Idempotent sweep.
	w = do(t, promoter, "POST", "/contracts/check-deadlines", nil)
	json.Unmarshal(w.Body.Bytes(), &sweep)
	if sweep.Voided != 0 {
		t.Errorf("Second sweep expected 0 voided, got %d", sweep.Voided)
	}

	// A voided contract rejects re-initiation.
	w = do(t, promoter, "POST", "/bookings/"+b.ID+"/contract/initiate", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Initiate on voided contract expected 400, got %d", w.Code)
	}
}

func TestDownloadRequiresFullExecution(t *testing.T) {
	db := setupDB(t)
	b, artist, _ := seedBooking(t, db)
	ct := initiate(t, b, artist)

	w := do(t, artist, "GET", "/contracts/"+ct.ID+"/pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Download before full signing expected 400, got %d", w.Code)
	}
}

func TestFetchContractDerivedFields(t *testing.T) {
	db := setupDB(t)
	b, artist, _ := seedBooking(t, db)
	ct := initiate(t, b, artist)

	w := do(t, artist, "GET", "/bookings/"+b.ID+"/contract", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Fetch failed: %s", w.Body.String())
	}
	resp := decodeContract(t, w)
	if resp.UserRole != contracts.RoleArtist {
		t.Errorf("Expected userRole artist, got %q", resp.UserRole)
	}
	if !resp.UserCanEdit {
		t.Error("Fresh contract should allow edits")
	}
	if resp.TimeRemaining <= 0 || resp.TimeRemaining > 48*3600 {
		t.Errorf("Unexpected timeRemaining %d", resp.TimeRemaining)
	}
	if resp.Contract.ID != ct.ID {
		t.Errorf("Wrong contract returned")
	}

	w = do(t, artist, "GET", "/bookings/00000000-0000-0000-0000-000000000000/contract", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown booking, got %d", w.Code)
	}
}

func signBoth(t *testing.T, ct *contracts.Contract, artist, promoter *users.User) {
	t.Helper()
	for _, u := range []*users.User{artist, promoter} {
		w := do(t, u, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})
		if w.Code != http.StatusOK {
			t.Fatalf("Review by %s failed: %s", u.Role, w.Body.String())
		}
		w = do(t, u, "POST", "/contracts/"+ct.ID+"/accept", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Accept by %s failed: %s", u.Role, w.Body.String())
		}
		w = do(t, u, "POST", "/contracts/"+ct.ID+"/sign",
			SignRequest{SignatureData: u.Name, SignatureType: contracts.SignatureTyped})
		if w.Code != http.StatusOK {
			t.Fatalf("Sign by %s failed: %s", u.Role, w.Body.String())
		}
	}
}

func TestAdminRejectionAllowsResigning(t *testing.T) {
	db := setupDB(t)
	b, artist, promoter := seedBooking(t, db)
	admin := adminUser(t, db)
	ct := initiate(t, b, promoter)

	signBoth(t, ct, artist, promoter)

	var current contracts.Contract
	db.First(&current, "id = ?", ct.ID)
	if current.Status != contracts.StatusAdminReview {
		t.Fatalf("Expected admin_review, got %s", current.Status)
	}

	w := do(t, admin, "POST", "/admin/contracts/"+ct.ID+"/review",
		AdminReviewRequest{Decision: AdminRejected, Note: "commission clause unclear"})
	if w.Code != http.StatusOK {
		t.Fatalf("Admin reject failed: %s", w.Body.String())
	}

	current = contracts.Contract{}
	db.First(&current, "id = ?", ct.ID)
	if current.Status != contracts.StatusSent {
		t.Errorf("Rejection must return contract to sent, got %s", current.Status)
	}
	if current.SignedByArtist || current.SignedByPromoter || current.SignedAt != nil {
		t.Error("Signed flags must be cleared for re-signing")
	}

	// The ledger keeps the original signature rows.
	var ledger int64
	db.Model(&contracts.ContractSignature{}).Where("contract_id = ?", ct.ID).Count(&ledger)
	if ledger != 2 {
		t.Errorf("Expected 2 ledger rows after rejection, got %d", ledger)
	}

	// Both parties re-sign (acceptance survives the rejection).
	for _, u := range []*users.User{artist, promoter} {
		w := do(t, u, "POST", "/contracts/"+ct.ID+"/sign",
			SignRequest{SignatureData: u.Name, SignatureType: contracts.SignatureTyped})
		if w.Code != http.StatusOK {
			t.Fatalf("Re-sign by %s failed: %s", u.Role, w.Body.String())
		}
	}

	db.First(&current, "id = ?", ct.ID)
	if current.Status != contracts.StatusAdminReview {
		t.Errorf("Expected admin_review after re-signing, got %s", current.Status)
	}
	db.Model(&contracts.ContractSignature{}).Where("contract_id = ?", ct.ID).Count(&ledger)
	if ledger != 4 {
		t.Errorf("Expected 4 ledger rows after re-signing, got %d", ledger)
	}
}

func TestReinitiateReportsPendingEdit(t *testing.T) {
	db := setupDB(t)
	b, artist, promoter := seedBooking(t, db)
	ct := initiate(t, b, promoter)

	w := do(t, promoter, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{
		Action:  ActionProposeEdits,
		Changes: json.RawMessage(`{"travel":{"flightClass":"business"}}`),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Propose failed: %s", w.Body.String())
	}

	// The artist's edit is unused, but the pending request blocks proposing,
	// and re-initiation must report that.
	w = do(t, artist, "POST", "/bookings/"+b.ID+"/contract/initiate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Re-initiate failed: %s", w.Body.String())
	}
	if resp := decodeContract(t, w); resp.UserCanEdit {
		t.Error("Re-initiation must report userCanEdit=false while an edit is pending")
	}
}

func TestInitiationMessageStatesDeadlineWindow(t *testing.T) {
	db := setupDB(t)
	b, _, promoter := seedBooking(t, db)
	initiate(t, b, promoter)

	var msg chat.Message
	if err := db.First(&msg, "kind = ?", chat.MessageKindSystem).Error; err != nil {
		t.Fatalf("Expected a system message: %v", err)
	}
	if !strings.Contains(msg.Body, "48 hours") {
		t.Errorf("Expected the configured window in the message, got %q", msg.Body)
	}
}

func TestEveryMutationLeavesAuditAndNotification(t *testing.T) {
	db := setupDB(t)
	b, artist, promoter := seedBooking(t, db)
	ct := initiate(t, b, promoter)

	do(t, artist, "POST", "/contracts/"+ct.ID+"/review", ReviewRequest{Action: ActionAcceptAsIs})

	var auditCount int64
	db.Table("audit_logs").Where("entity_id = ?", ct.ID).Count(&auditCount)
	if auditCount != 2 { // initiate + review
		t.Errorf("Expected 2 audit rows, got %d", auditCount)
	}

	var messages int64
	db.Table("messages").Count(&messages)
	if messages != 2 {
		t.Errorf("Expected 2 system messages, got %d", messages)
	}
}
