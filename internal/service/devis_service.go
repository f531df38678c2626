package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/sse"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TauxTVADefaut taux de TVA appliqué quand aucune ventilation par ligne n'est fournie
const TauxTVADefaut = 20.0

const statsCacheTTL = time.Minute

// DevisService moteur devis/factures : calculs, cycle de vie, situations
type DevisService struct {
	repo *repository.DevisRepository
	rdb  *redis.Client
	hub  *sse.Hub
}

func NewDevisService(repo *repository.DevisRepository, rdb *redis.Client, hub *sse.Hub) *DevisService {
	return &DevisService{repo: repo, rdb: rdb, hub: hub}
}

// LigneInput ligne soumise par le client ; les totaux sont toujours recalculés serveur
type LigneInput struct {
	Designation  string   `json:"designation" binding:"required"`
	Description  string   `json:"description"`
	Unite        string   `json:"unite"`
	Quantite     float64  `json:"quantite"`
	PrixUnitaire float64  `json:"prix_unitaire"`
	TauxTVA      *float64 `json:"taux_tva"`
}

// CreateDevisRequest création d'un devis ou d'une facture directe
type CreateDevisRequest struct {
	Type            string       `json:"type"`
	Objet           string       `json:"objet"`
	ClientID        string       `json:"client_id" binding:"required"`
	ChantierID      string       `json:"chantier_id"`
	Lignes          []LigneInput `json:"lignes" binding:"required"`
	Autoliquidation bool         `json:"autoliquidation"`
	MentionAutoliq  string       `json:"mention_autoliq"`
	DateEcheance    *string      `json:"date_echeance"`
	Notes           string       `json:"notes"`
}

// UpdateDevisRequest mise à jour, autorisée uniquement en BROUILLON
type UpdateDevisRequest struct {
	Objet        *string      `json:"objet"`
	ChantierID   *string      `json:"chantier_id"`
	Lignes       []LigneInput `json:"lignes"`
	DateEcheance *string      `json:"date_echeance"`
	Notes        *string      `json:"notes"`
}

// Totaux résultat du calcul financier
type Totaux struct {
	TotalHT  float64
	TotalTVA float64
	TotalTTC float64
	TVA55    float64
	TVA10    float64
	TVA20    float64
}

// arrondi monétaire au centime
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// tauxValide taux admis pour la ventilation multi-taux
func tauxValide(taux float64) bool {
	return taux == 5.5 || taux == 10 || taux == 20
}

// ComputeTotaux calcule HT, TVA et TTC d'un jeu de lignes.
//
// Sans taux par ligne : TVA forfaitaire à 20% du total HT. Avec au moins un
// taux par ligne : chaque ligne est taxée à son taux (20% par défaut) et la
// TVA est ventilée dans les compartiments 5,5/10/20.
//
// Autoliquidation : TVA forcée à 0, TTC = HT (article 283-2 du CGI).
func ComputeTotaux(lignes []LigneInput, autoliquidation bool) Totaux {
	var t Totaux

	multiTaux := false
	for _, l := range lignes {
		if l.TauxTVA != nil {
			multiTaux = true
			break
		}
	}

	for _, l := range lignes {
		ht := round2(l.Quantite * l.PrixUnitaire)
		t.TotalHT = round2(t.TotalHT + ht)

		if !multiTaux {
			continue
		}
		taux := TauxTVADefaut
		if l.TauxTVA != nil {
			taux = *l.TauxTVA
		}
		tva := round2(ht * taux / 100)
		switch taux {
		case 5.5:
			t.TVA55 = round2(t.TVA55 + tva)
		case 10:
			t.TVA10 = round2(t.TVA10 + tva)
		default:
			t.TVA20 = round2(t.TVA20 + tva)
		}
	}

	if multiTaux {
		t.TotalTVA = round2(t.TVA55 + t.TVA10 + t.TVA20)
	} else {
		t.TotalTVA = round2(t.TotalHT * TauxTVADefaut / 100)
		t.TVA20 = t.TotalTVA
	}

	if autoliquidation {
		t.TotalTVA = 0
		t.TVA55, t.TVA10, t.TVA20 = 0, 0, 0
		t.TotalTTC = t.TotalHT
		return t
	}

	t.TotalTTC = round2(t.TotalHT + t.TotalTVA)
	return t
}

// validerLignes contrôle des champs requis avant tout calcul
func validerLignes(lignes []LigneInput) error {
	if len(lignes) == 0 {
		return newValidationError("lignes")
	}
	var champs []string
	for i, l := range lignes {
		if l.Designation == "" {
			champs = append(champs, fmt.Sprintf("lignes[%d].designation", i))
		}
		if l.Quantite <= 0 {
			champs = append(champs, fmt.Sprintf("lignes[%d].quantite", i))
		}
		if l.PrixUnitaire < 0 {
			champs = append(champs, fmt.Sprintf("lignes[%d].prix_unitaire", i))
		}
		if l.TauxTVA != nil && !tauxValide(*l.TauxTVA) {
			champs = append(champs, fmt.Sprintf("lignes[%d].taux_tva", i))
		}
	}
	if len(champs) > 0 {
		return newValidationError(champs...)
	}
	return nil
}

func buildLignes(devisID string, inputs []LigneInput) []entity.LigneDevis {
	lignes := make([]entity.LigneDevis, 0, len(inputs))
	for i, in := range inputs {
		lignes = append(lignes, entity.LigneDevis{
			ID:           uuid.New().String()[:32],
			DevisID:      devisID,
			Designation:  in.Designation,
			Description:  in.Description,
			Unite:        in.Unite,
			Quantite:     in.Quantite,
			PrixUnitaire: in.PrixUnitaire,
			Total:        round2(in.Quantite * in.PrixUnitaire),
			Ordre:        i,
			TauxTVA:      in.TauxTVA,
			CreatedAt:    time.Now(),
		})
	}
	return lignes
}

func appliquerTotaux(d *entity.Devis, t Totaux) {
	d.TotalHT = t.TotalHT
	d.TotalTVA = t.TotalTVA
	d.TotalTTC = t.TotalTTC
	d.TVA55 = t.TVA55
	d.TVA10 = t.TVA10
	d.TVA20 = t.TVA20
}

// List liste paginée avec filtres
func (s *DevisService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Devis, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get détail d'un document
func (s *DevisService) Get(ctx context.Context, id string) (*entity.Devis, error) {
	return s.repo.FindByID(ctx, id)
}

// Create crée un devis (ou une facture directe) avec numérotation atomique
func (s *DevisService) Create(ctx context.Context, userID string, req *CreateDevisRequest) (*entity.Devis, error) {
	if req.ClientID == "" {
		return nil, newValidationError("client_id")
	}
	if err := validerLignes(req.Lignes); err != nil {
		return nil, err
	}

	docType := entity.TypeDevis
	if req.Type == entity.TypeFacture {
		docType = entity.TypeFacture
	}

	now := time.Now()
	devis := &entity.Devis{
		ID:         uuid.New().String()[:32],
		Type:       docType,
		Statut:     entity.DevisBrouillon,
		Objet:      req.Objet,
		ClientID:   req.ClientID,
		ChantierID: req.ChantierID,
		Autoliquidation: req.Autoliquidation,
		CreatedBy:  userID,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if req.Autoliquidation {
		devis.MentionAutoliq = req.MentionAutoliq
		if devis.MentionAutoliq == "" {
			devis.MentionAutoliq = entity.MentionAutoliquidationDefaut
		}
	}

	if req.DateEcheance != nil {
		if t, err := time.Parse("2006-01-02", *req.DateEcheance); err == nil {
			devis.DateEcheance = &t
		}
	}

	appliquerTotaux(devis, ComputeTotaux(req.Lignes, req.Autoliquidation))
	devis.Lignes = buildLignes(devis.ID, req.Lignes)

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumero(tx, docType)
		if err != nil {
			return err
		}
		devis.Numero = numero
		return tx.Create(devis).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return s.repo.FindByID(ctx, devis.ID)
}

// Update met à jour un document en BROUILLON ; les lignes sont remplacées
// intégralement et les totaux recalculés côté serveur
func (s *DevisService) Update(ctx context.Context, id string, req *UpdateDevisRequest) (*entity.Devis, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Statut != entity.DevisBrouillon {
		return nil, fmt.Errorf("%w: seul un document en BROUILLON est modifiable (statut actuel %s)",
			ErrTransitionInvalide, devis.Statut)
	}

	if req.Objet != nil {
		devis.Objet = *req.Objet
	}
	if req.ChantierID != nil {
		devis.ChantierID = *req.ChantierID
	}
	if req.Notes != nil {
		devis.Notes = *req.Notes
	}
	if req.DateEcheance != nil {
		if t, err := time.Parse("2006-01-02", *req.DateEcheance); err == nil {
			devis.DateEcheance = &t
		}
	}

	if req.Lignes != nil {
		if err := validerLignes(req.Lignes); err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceLignes(ctx, devis.ID, buildLignes(devis.ID, req.Lignes)); err != nil {
			return nil, err
		}
		appliquerTotaux(devis, ComputeTotaux(req.Lignes, devis.Autoliquidation))
	}

	devis.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, devis); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return s.repo.FindByID(ctx, devis.ID)
}

// Delete suppression, autorisée uniquement en BROUILLON
func (s *DevisService) Delete(ctx context.Context, id string) error {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if devis.Statut != entity.DevisBrouillon {
		return fmt.Errorf("%w: seul un document en BROUILLON peut être supprimé", ErrTransitionInvalide)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// ConvertToFacture convertit un devis ACCEPTE en facture : nouveau numéro
// FAC#### réservé sous verrou, lignes copiées à l'identique, statut ENVOYE,
// lien retour facture_id sur le devis source
func (s *DevisService) ConvertToFacture(ctx context.Context, id string) (*entity.Devis, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Type != entity.TypeDevis {
		return nil, fmt.Errorf("%w: seul un devis peut être converti en facture", ErrTransitionInvalide)
	}
	if devis.Statut != entity.DevisAccepte {
		return nil, fmt.Errorf("%w: le devis doit être ACCEPTE pour être converti (statut actuel %s)",
			ErrTransitionInvalide, devis.Statut)
	}
	if devis.FactureID != "" {
		return nil, fmt.Errorf("%w: devis déjà converti (facture %s)", ErrTransitionInvalide, devis.FactureID)
	}

	now := time.Now()
	facture := &entity.Devis{
		ID:         uuid.New().String()[:32],
		Type:       entity.TypeFacture,
		Statut:     entity.DevisEnvoye,
		Objet:      devis.Objet,
		ClientID:   devis.ClientID,
		ChantierID: devis.ChantierID,
		TotalHT:    devis.TotalHT,
		TotalTVA:   devis.TotalTVA,
		TotalTTC:   devis.TotalTTC,
		TVA55:      devis.TVA55,
		TVA10:      devis.TVA10,
		TVA20:      devis.TVA20,
		Autoliquidation: devis.Autoliquidation,
		MentionAutoliq:  devis.MentionAutoliq,
		DateEnvoi:  &now,
		CreatedBy:  devis.CreatedBy,
		Notes:      devis.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Copie des lignes à l'identique
	for i, l := range devis.Lignes {
		facture.Lignes = append(facture.Lignes, entity.LigneDevis{
			ID:           uuid.New().String()[:32],
			DevisID:      facture.ID,
			Designation:  l.Designation,
			Description:  l.Description,
			Unite:        l.Unite,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
			Total:        l.Total,
			Ordre:        i,
			TauxTVA:      l.TauxTVA,
			CreatedAt:    now,
		})
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumero(tx, entity.TypeFacture)
		if err != nil {
			return err
		}
		facture.Numero = numero
		if err := tx.Create(facture).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Devis{}).
			Where("id = ?", devis.ID).
			Update("facture_id", facture.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.notifier(devis.ClientID, "devis_converti", devis.ID, facture.Numero)
	return s.repo.FindByID(ctx, facture.ID)
}

// CreateSituationRequest situation de travaux dérivée d'un parent
type CreateSituationRequest struct {
	Avancement int          `json:"avancement" binding:"required"`
	Lignes     []LigneInput `json:"lignes"`
}

// CreateSituation crée une situation (facturation partielle). Sans lignes
// explicites, les lignes du parent sont proratisées par l'avancement.
func (s *DevisService) CreateSituation(ctx context.Context, parentID string, req *CreateSituationRequest) (*entity.Devis, error) {
	if req.Avancement <= 0 || req.Avancement > 100 {
		return nil, newValidationError("avancement")
	}

	parent, err := s.repo.FindByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	lignes := req.Lignes
	if len(lignes) == 0 {
		ratio := float64(req.Avancement) / 100
		for _, l := range parent.Lignes {
			lignes = append(lignes, LigneInput{
				Designation:  l.Designation,
				Description:  l.Description,
				Unite:        l.Unite,
				Quantite:     l.Quantite,
				PrixUnitaire: round2(l.PrixUnitaire * ratio),
				TauxTVA:      l.TauxTVA,
			})
		}
	}
	if err := validerLignes(lignes); err != nil {
		return nil, err
	}

	count, err := s.repo.CountSituations(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	seq := int(count) + 1

	now := time.Now()
	situation := &entity.Devis{
		ID:              uuid.New().String()[:32],
		Numero:          fmt.Sprintf("%s-S%d", parent.Numero, seq),
		Type:            parent.Type,
		Statut:          entity.DevisBrouillon,
		Objet:           fmt.Sprintf("%s - situation n°%d (%d%%)", parent.Objet, seq, req.Avancement),
		ClientID:        parent.ClientID,
		ChantierID:      parent.ChantierID,
		Autoliquidation: parent.Autoliquidation,
		MentionAutoliq:  parent.MentionAutoliq,
		SituationNumero: seq,
		SituationParent: parent.ID,
		Avancement:      req.Avancement,
		CreatedBy:       parent.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	appliquerTotaux(situation, ComputeTotaux(lignes, parent.Autoliquidation))
	situation.Lignes = buildLignes(situation.ID, lignes)

	if err := s.repo.Create(ctx, situation); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return s.repo.FindByID(ctx, situation.ID)
}

// ListSituations situations rattachées à un parent
func (s *DevisService) ListSituations(ctx context.Context, parentID string) ([]entity.Devis, error) {
	if _, err := s.repo.FindByID(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.FindSituations(ctx, parentID)
}

// ToggleAutoliquidation active/désactive l'autoliquidation et recalcule les totaux
func (s *DevisService) ToggleAutoliquidation(ctx context.Context, id string, enabled bool, mention string) (*entity.Devis, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	devis.Autoliquidation = enabled
	if enabled {
		devis.MentionAutoliq = mention
		if devis.MentionAutoliq == "" {
			devis.MentionAutoliq = entity.MentionAutoliquidationDefaut
		}
	} else {
		devis.MentionAutoliq = ""
	}

	appliquerTotaux(devis, ComputeTotaux(lignesToInputs(devis.Lignes), enabled))
	devis.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, devis); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return devis, nil
}

// UpdateTVAMultitauxRequest ventilation TVA par ligne
type UpdateTVAMultitauxRequest struct {
	Taux map[string]float64 `json:"taux" binding:"required"` // ligne id → taux
}

// TVAMultitaux ventilation courante
type TVAMultitaux struct {
	TVA55    float64 `json:"tva_55"`
	TVA10    float64 `json:"tva_10"`
	TVA20    float64 `json:"tva_20"`
	TotalTVA float64 `json:"total_tva"`
	Lignes   []entity.LigneDevis `json:"lignes"`
}

// GetTVAMultitaux retourne la ventilation TVA du document
func (s *DevisService) GetTVAMultitaux(ctx context.Context, id string) (*TVAMultitaux, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TVAMultitaux{
		TVA55:    devis.TVA55,
		TVA10:    devis.TVA10,
		TVA20:    devis.TVA20,
		TotalTVA: devis.TotalTVA,
		Lignes:   devis.Lignes,
	}, nil
}

// UpdateTVAMultitaux applique des taux par ligne et recalcule la ventilation
func (s *DevisService) UpdateTVAMultitaux(ctx context.Context, id string, req *UpdateTVAMultitauxRequest) (*entity.Devis, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Statut != entity.DevisBrouillon {
		return nil, fmt.Errorf("%w: la TVA n'est modifiable qu'en BROUILLON", ErrTransitionInvalide)
	}

	for ligneID, taux := range req.Taux {
		if !tauxValide(taux) {
			return nil, newValidationError("taux[" + ligneID + "]")
		}
	}

	inputs := make([]LigneInput, 0, len(devis.Lignes))
	lignes := make([]entity.LigneDevis, len(devis.Lignes))
	copy(lignes, devis.Lignes)
	for i := range lignes {
		if taux, ok := req.Taux[lignes[i].ID]; ok {
			t := taux
			lignes[i].TauxTVA = &t
		}
		inputs = append(inputs, LigneInput{
			Designation:  lignes[i].Designation,
			Quantite:     lignes[i].Quantite,
			PrixUnitaire: lignes[i].PrixUnitaire,
			TauxTVA:      lignes[i].TauxTVA,
		})
	}

	if err := s.repo.ReplaceLignes(ctx, devis.ID, lignes); err != nil {
		return nil, err
	}

	appliquerTotaux(devis, ComputeTotaux(inputs, devis.Autoliquidation))
	devis.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, devis); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, devis.ID)
}

// Send passe le document en ENVOYE et horodate l'envoi. L'expédition du
// courriel est déléguée à un collaborateur externe.
func (s *DevisService) Send(ctx context.Context, id string) (*entity.Devis, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Statut == entity.DevisPaye {
		return nil, fmt.Errorf("%w: un document PAYE ne peut pas être renvoyé", ErrTransitionInvalide)
	}

	now := time.Now()
	devis.Statut = entity.DevisEnvoye
	devis.DateEnvoi = &now
	devis.UpdatedAt = now

	if err := s.repo.Update(ctx, devis); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.notifier(devis.ClientID, "devis_envoye", devis.ID, devis.Numero)
	return devis, nil
}

// transitions de statut autorisées
var transitionsStatut = map[string][]string{
	entity.DevisBrouillon: {entity.DevisEnvoye, entity.DevisAnnule},
	entity.DevisEnvoye:    {entity.DevisAccepte, entity.DevisRefuse, entity.DevisPaye, entity.DevisAnnule},
	entity.DevisAccepte:   {entity.DevisPaye, entity.DevisAnnule},
}

// ChangeStatut applique une transition contrôlée par la table ci-dessus
func (s *DevisService) ChangeStatut(ctx context.Context, id, nouveau string) (*entity.Devis, error) {
	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, target := range transitionsStatut[devis.Statut] {
		if target == nouveau {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s → %s", ErrTransitionInvalide, devis.Statut, nouveau)
	}

	now := time.Now()
	devis.Statut = nouveau
	if nouveau == entity.DevisAccepte {
		devis.DateAcceptation = &now
	}
	devis.UpdatedAt = now

	if err := s.repo.Update(ctx, devis); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.notifier(devis.ClientID, "devis_statut", devis.ID, nouveau)
	return devis, nil
}

// PaiementRequest enregistrement d'un règlement
type PaiementRequest struct {
	Montant      float64 `json:"montant" binding:"required"`
	Methode      string  `json:"methode" binding:"required"`
	Reference    string  `json:"reference"`
	DatePaiement *string `json:"date_paiement"`
}

// PaiementResult règlement enregistré + état de solde
type PaiementResult struct {
	Paiement     *entity.Paiement `json:"paiement"`
	Devis        *entity.Devis    `json:"devis"`
	MontantRegle float64          `json:"montant_regle"`
	ResteAPayer  float64          `json:"reste_a_payer"`
}

// RecordPaiement enregistre un règlement. Le statut ne passe à PAYE que
// lorsque le cumul des règlements atteint le TTC ; un paiement partiel
// laisse le statut en place et expose le reste à payer.
func (s *DevisService) RecordPaiement(ctx context.Context, id, userID string, req *PaiementRequest) (*PaiementResult, error) {
	if req.Montant <= 0 {
		return nil, newValidationError("montant")
	}
	switch req.Methode {
	case entity.PaiementVirement, entity.PaiementCheque, entity.PaiementCarte, entity.PaiementEspeces:
	default:
		return nil, newValidationError("methode")
	}

	devis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Type != entity.TypeFacture {
		return nil, fmt.Errorf("%w: les règlements ne s'enregistrent que sur une facture", ErrTransitionInvalide)
	}
	if devis.Statut == entity.DevisAnnule {
		return nil, fmt.Errorf("%w: facture annulée", ErrTransitionInvalide)
	}

	datePaiement := time.Now()
	if req.DatePaiement != nil {
		if t, err := time.Parse("2006-01-02", *req.DatePaiement); err == nil {
			datePaiement = t
		}
	}

	paiement := &entity.Paiement{
		ID:           uuid.New().String()[:32],
		DevisID:      devis.ID,
		Montant:      round2(req.Montant),
		Methode:      req.Methode,
		Reference:    req.Reference,
		DatePaiement: datePaiement,
		CreatedBy:    userID,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreatePaiement(ctx, paiement); err != nil {
		return nil, err
	}

	regle, err := s.repo.SumPaiements(ctx, devis.ID)
	if err != nil {
		return nil, err
	}

	if regle >= devis.TotalTTC && devis.Statut != entity.DevisPaye {
		devis.Statut = entity.DevisPaye
		devis.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, devis); err != nil {
			return nil, err
		}
		s.invalidateStats(ctx)
		s.notifier(devis.ClientID, "facture_payee", devis.ID, devis.Numero)
	}

	reste := round2(devis.TotalTTC - regle)
	if reste < 0 {
		reste = 0
	}

	return &PaiementResult{
		Paiement:     paiement,
		Devis:        devis,
		MontantRegle: round2(regle),
		ResteAPayer:  reste,
	}, nil
}

// ListPaiements règlements d'une facture
func (s *DevisService) ListPaiements(ctx context.Context, id string) ([]entity.Paiement, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.FindPaiements(ctx, id)
}

// Stats agrégats par statut, mis en cache une minute
func (s *DevisService) Stats(ctx context.Context, docType string) ([]repository.StatutStat, error) {
	cacheKey := "devis:stats:" + docType

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var stats []repository.StatutStat
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.repo.Stats(ctx, docType)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, cacheKey, payload, statsCacheTTL)
		}
	}
	return stats, nil
}

func (s *DevisService) invalidateStats(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, "devis:stats:", "devis:stats:"+entity.TypeDevis, "devis:stats:"+entity.TypeFacture)
}

func (s *DevisService) notifier(userID, event, devisID, detail string) {
	if s.hub == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{"devis_id": devisID, "detail": detail})
	s.hub.SendToUser(userID, sse.Event{EventType: event, Data: string(data)})
}

func lignesToInputs(lignes []entity.LigneDevis) []LigneInput {
	inputs := make([]LigneInput, 0, len(lignes))
	for _, l := range lignes {
		inputs = append(inputs, LigneInput{
			Designation:  l.Designation,
			Description:  l.Description,
			Unite:        l.Unite,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
			TauxTVA:      l.TauxTVA,
		})
	}
	return inputs
}
