package parser

// Field codes, legacy Joconde code first, then the open-data export names.
var (
	fieldReference         = []string{"REF", "reference"}
	fieldInventoryNumber   = []string{"INV", "numero_inventaire", "inventaire"}
	fieldDenomination      = []string{"DENO", "denomination"}
	fieldTitle             = []string{"TITR", "titre"}
	fieldDescription       = []string{"DESC", "description"}
	fieldDimensions        = []string{"DIMS", "mesures", "dimensions"}
	fieldCreationDate      = []string{"MILL", "millesime_de_creation", "date_creation"}
	fieldCreationPlace     = []string{"LIEUX", "lieu_de_creation_utilisation", "lieu_creation"}
	fieldConservationPlace = []string{"LOCA", "lieu_de_conservation", "localisation"}
	fieldCopyright         = []string{"COPY", "copyright_notice", "copyright"}
	fieldImageURL          = []string{"VIDEO", "IMAGE", "lien_video", "url_image"}

	fieldAuthors    = []string{"AUTR", "auteur"}
	fieldAuthorRole = []string{"ROLE", "role_auteur"}
	fieldDomain     = []string{"DOMN", "domaine"}
	fieldTechnique  = []string{"TECH", "materiaux_techniques", "technique"}
	fieldPeriod     = []string{"PERI", "periode_de_creation", "periode"}

	fieldMuseum     = []string{"MUSEE", "nom_officiel_musee", "nom_du_musee"}
	fieldMuseumCode = []string{"MUSEO", "code_museo", "identifiant_museofile"}
	fieldCity       = []string{"VILLE", "ville"}
	fieldDepartment = []string{"DEPT", "departement"}
	fieldRegion     = []string{"REGION", "region"}
)

// DefaultArtistRole is recorded on artwork/artist links when the record
// carries no role.
const DefaultArtistRole = "author"
