package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tskpay-backend/internal/models"
	"tskpay-backend/internal/storage"
)

// RosterHandler covers the club roster: members, parents, groups, coaches.
// These are thin CRUD endpoints over the store; billing rules live in the
// services.
type RosterHandler struct {
	store storage.Store
}

func NewRosterHandler(store storage.Store) *RosterHandler {
	return &RosterHandler{store: store}
}

func (h *RosterHandler) ListMembers(c *gin.Context) {
	members, err := h.store.Members(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": members})
}

func (h *RosterHandler) CreateMember(c *gin.Context) {
	var m models.Member
	if err := c.BindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	if m.Status == "" {
		m.Status = models.MemberActive
	}
	if err := h.store.CreateMember(c.Request.Context(), &m); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m})
}

func (h *RosterHandler) UpdateMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	current, err := storage.FindMember(c.Request.Context(), h.store, id)
	if err != nil {
		writeError(c, err)
		return
	}
	var m models.Member
	if err := c.BindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	m.ID = id
	m.CreatedAt = current.CreatedAt
	if err := h.store.UpdateMember(c.Request.Context(), &m); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m})
}

func (h *RosterHandler) DeleteMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteMember(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member deleted"})
}

func (h *RosterHandler) ListParents(c *gin.Context) {
	parents, err := h.store.Parents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": parents})
}

func (h *RosterHandler) CreateParent(c *gin.Context) {
	var p models.Parent
	if err := c.BindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	if err := h.store.CreateParent(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parent": p})
}

func (h *RosterHandler) UpdateParent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	current, err := storage.FindParent(c.Request.Context(), h.store, id)
	if err != nil {
		writeError(c, err)
		return
	}
	var p models.Parent
	if err := c.BindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	p.ID = id
	p.CreatedAt = current.CreatedAt
	if err := h.store.UpdateParent(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parent": p})
}

func (h *RosterHandler) DeleteParent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteParent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parent deleted"})
}

func (h *RosterHandler) ListGroups(c *gin.Context) {
	groups, err := h.store.Groups(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": groups})
}

func (h *RosterHandler) CreateGroup(c *gin.Context) {
	var g models.Group
	if err := c.BindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	if err := h.store.CreateGroup(c.Request.Context(), &g); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

func (h *RosterHandler) UpdateGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var g models.Group
	if err := c.BindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	g.ID = id
	if err := h.store.UpdateGroup(c.Request.Context(), &g); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

func (h *RosterHandler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteGroup(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

func (h *RosterHandler) ListCoaches(c *gin.Context) {
	coaches, err := h.store.Coaches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": coaches})
}

func (h *RosterHandler) CreateCoach(c *gin.Context) {
	var coach models.Coach
	if err := c.BindJSON(&coach); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	coach.ID = uuid.New()
	coach.CreatedAt = time.Now()
	if err := h.store.CreateCoach(c.Request.Context(), &coach); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coach": coach})
}

func (h *RosterHandler) UpdateCoach(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var coach models.Coach
	if err := c.BindJSON(&coach); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	coach.ID = id
	if err := h.store.UpdateCoach(c.Request.Context(), &coach); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coach": coach})
}

func (h *RosterHandler) DeleteCoach(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCoach(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coach deleted"})
}
