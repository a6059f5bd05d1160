package extract

import (
	"regexp"

	"afipscan/pkg/models"
)

// valueClass groups fields by the shape of their values. It selects the
// normalizer, the score bonus, and whether digits-only candidates pass the
// validity gate.
type valueClass int

const (
	classText valueClass = iota
	classDigits
	classAmount
	classDate
	classCUIT
	classCAE
	classPageInfo
	classInvoiceClass
	classDNI
	classSex
	classNationality
	classIDKind
)

// fieldSpec binds one output field to its ordered pattern list. Patterns
// run in order and all matches compete on score, so the more anchored
// variants come first only for readability.
type fieldSpec struct {
	name     string
	class    valueClass
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		// Malformed patterns are a programming error, not input.
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

// afipFields is the AFIP electronic invoice pattern battery. Keyword
// spellings cover the accented and unaccented renderings OCR produces.
var afipFields = []fieldSpec{
	{name: "invoice_class", class: classInvoiceClass, patterns: compileAll(
		`(?m)COD\.?\s*0*(\d{1,3})`,
		`(?m)^\s*FACTURA\s+([ABCEM])\b`,
		`(?m)^\s*([ABCEM])\s*$`,
	)},
	{name: "point_of_sale", class: classDigits, patterns: compileAll(
		`Punto\s+de\s+Venta:?\s*(\d{4,5})`,
		`Pto\.?\s*Vta\.?:?\s*(\d{4,5})`,
		`P\.V\.:?\s*(\d{4,5})`,
		`PV:?\s*(\d{4,5})`,
	)},
	{name: "invoice_number", class: classDigits, patterns: compileAll(
		`Comp\.?\s*Nro\.?:?\s*(\d+)`,
		`Nro\.?\s*Comp\.?:?\s*(\d+)`,
		`N[úu]mero:?\s*(\d+)`,
	)},
	{name: "issue_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+Emisi[óo]n:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Fecha\s+Emisi[óo]n:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Emisi[óo]n:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Fecha:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
	)},
	{name: "due_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+Vto\.?\s*para\s+el\s+pago:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Vto\.?\s*para\s+el\s+pago:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Fecha\s+de\s+Vencimiento:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Vencimiento:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
	)},
	{name: "issuer_name", class: classText, patterns: compileAll(
		`(?m)Raz[óo]n\s+Social:?\s*([^\n\r]+?)\s*(?:\r?\n|Domicilio|CUIT|$)`,
		`(?m)Raz[óo]n\s+Social:?\s*([^\n\r]+)`,
	)},
	{name: "issuer_address", class: classText, patterns: compileAll(
		`(?m)Domicilio\s+Comercial:?\s*([^\n\r]+?)\s*(?:\r?\n|Condici[óo]n|CUIT|$)`,
		`(?m)Domicilio\s+Comercial:?\s*([^\n\r]+)`,
	)},
	{name: "issuer_vat_status", class: classText, patterns: compileAll(
		`(?m)Condici[óo]n\s+frente\s+al\s+IVA:?\s*([^\n\r]+?)\s*(?:\r?\n|Per[íi]odo|CUIT|$)`,
		`(?m)Condici[óo]n\s+IVA:?\s*([^\n\r]+)`,
	)},
	{name: "buyer_name", class: classText, patterns: compileAll(
		`(?m)Apellido\s+y\s+Nombre\s*/\s*Raz[óo]n\s+Social:?\s*([^\n\r]+?)\s*(?:\r?\n|Domicilio|CUIT|$)`,
		`(?m)Nombre\s+y\s+Apellido:?\s*([^\n\r]+)`,
		`(?m)Cliente:?\s*([^\n\r]+)`,
	)},
	{name: "buyer_address", class: classText, patterns: compileAll(
		// The colon is mandatory here so the issuer's "Domicilio
		// Comercial:" lines do not bleed into the buyer block.
		`(?m)Domicilio:\s*([^\n\r]+?)\s*(?:\r?\n|CUIT|Condici[óo]n|$)`,
		`(?m)Direcci[óo]n:\s*([^\n\r]+)`,
		`(?m)Dir\.:\s*([^\n\r]+)`,
	)},
	{name: "buyer_vat_status", class: classText, patterns: compileAll(
		`(?m)IVA\s+Consumidor\s+Final`,
		`(?m)Condici[óo]n\s+IVA\s+comprador:?\s*([^\n\r]+)`,
	)},
	{name: "sale_terms", class: classText, patterns: compileAll(
		`(?m)Condici[óo]n\s+de\s+venta:?\s*([^\n\r]+?)\s*(?:\r?\n|CUIT|Ingresos|$)`,
		`(?m)Condici[óo]n\s+venta:?\s*([^\n\r]+)`,
		`(?m)Forma\s+de\s+pago:?\s*([^\n\r]+)`,
	)},
	{name: "gross_income_id", class: classDigits, patterns: compileAll(
		`(?m)Ingresos\s+Brutos:?\s*([^\n\r]+?)\s*(?:\r?\n|Fecha|CUIT|$)`,
		`(?m)Ing\.\s+Brutos:?\s*([^\n\r]+)`,
		`(?m)IIBB:?\s*([^\n\r]+)`,
	)},
	{name: "activity_start_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+Inicio\s+de\s+Actividades:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Inicio\s+Actividades:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Fecha\s+Inicio:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
	)},
	{name: "subtotal", class: classAmount, patterns: compileAll(
		`Subtotal:?\s*\$?\s*([\d,.]+)`,
		`Sub\s+Total:?\s*\$?\s*([\d,.]+)`,
		`Subtotal\s+Neto:?\s*\$?\s*([\d,.]+)`,
	)},
	{name: "tax_amount", class: classAmount, patterns: compileAll(
		`Importe\s+IVA:?\s*\$?\s*([\d,.]+)`,
		`IVA\s+[\d,.]+%:?\s*\$?\s*([\d,.]+)`,
	)},
	{name: "other_taxes", class: classAmount, patterns: compileAll(
		`Importe\s+Otros\s+Tributos:?\s*\$?\s*([\d,.]+)`,
		`Otros\s+Tributos:?\s*\$?\s*([\d,.]+)`,
		`Tributos:?\s*\$?\s*([\d,.]+)`,
	)},
	{name: "total_amount", class: classAmount, patterns: compileAll(
		`Importe\s+Total:?\s*\$?\s*([\d,.]+)`,
		`TOTAL:?\s*\$?\s*([\d,.]+)`,
		`Total:?\s*\$?\s*([\d,.]+)`,
	)},
	{name: "cae_number", class: classCAE, patterns: compileAll(
		`CAE\s+N[°º]:?\s*(\d{14})`,
		`CAE\s+N[°º]:?\s*(\d{13,15})`,
		`CAE:?\s*(\d{14})`,
		`CAE:?\s*(\d{13,15})`,
		`C\.A\.E\.\s*N[°º]:?\s*(\d{13,15})`,
		`C[óo]digo\s+de\s+Autorizaci[óo]n\s+Electr[óo]nica:?\s*(\d{14})`,
		`CAE\s*Nro:?\s*(\d{13,15})`,
		`CAE\s*[Nn][°º]?\s*:\s*([0-9 ]{13,16})`,
		`CAE\s*[Nn][°º]?\s*:\s*([0-9-]{13,16})`,
	)},
	{name: "cae_due_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+Vto\.?\s*de\s+CAE:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`Vto\.?\s*CAE:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
		`CAE\s+Vto\.?:?\s*(\d{1,2}/\d{1,2}/\d{4})`,
	)},
	{name: "page_info", class: classPageInfo, patterns: compileAll(
		`P[áa]g\.?\s*(\d+/\d+)`,
		`P[áa]gina\s*(\d+/\d+)`,
		`Page\s*(\d+/\d+)`,
	)},
}

// cuitPatterns is handled outside the per-field loop: every match in the
// document competes, the checksum filters them, and document order assigns
// issuer before buyer. Word boundaries keep an 11-digit slice of a longer
// run, such as a CAE, from posing as a CUIT.
var cuitPatterns = compileAll(
	`\b(\d{2}-\d{8}-\d)\b`,
	`\b(\d{2}\.\d{8}\.\d)\b`,
	`\b(\d{11})\b`,
)

// dniFields is the pattern battery for Argentine identity documents: the
// card and booklet DNI formats and the passport. Labels appear in Spanish,
// often with the English rendering after a slash on the card format. Name
// captures are restricted to same-line uppercase runs, the way the fields
// print.
var dniFields = []fieldSpec{
	{name: "id_kind", class: classIDKind, patterns: compileAll(
		`(LIBRETA\s+C[ÍI]VICA)`,
		`(PASAPORTE)`,
		`(DOCUMENTO\s+NACIONAL\s+DE\s+IDENTIDAD)`,
	)},
	{name: "dni_number", class: classDNI, patterns: compileAll(
		`DNI\s*N?[º°]?\s*:?\s*(\d{1,2}\.\d{3}\.\d{3})`,
		`DNI\s*N?[º°]?\s*:?\s*(\d{7,8})\b`,
		`Documento\s*(?:/\s*Document)?\s*:?\s*(\d{1,2}\.\d{3}\.\d{3})`,
		`Documento\s*(?:/\s*Document)?\s*:?\s*(\d{7,8})\b`,
		`LC\s*:?\s*(\d{7,8})\b`,
	)},
	{name: "surname", class: classText, patterns: compileAll(
		`(?m)Apellido\s*(?:/\s*Surname)?\s*:?\s*([A-ZÁÉÍÓÚÑ ]{2,50})\s*$`,
		`(?m)Surname\s*:?\s*([A-ZÁÉÍÓÚÑ ]{2,50})\s*$`,
	)},
	{name: "given_names", class: classText, patterns: compileAll(
		`(?m)Nombres?\s*(?:/\s*Name)?\s*:?\s*([A-ZÁÉÍÓÚÑ ]{2,50})\s*$`,
		`(?m)\bName\s*:?\s*([A-ZÁÉÍÓÚÑ ]{2,50})\s*$`,
	)},
	{name: "sex", class: classSex, patterns: compileAll(
		`Sexo\s*(?:/\s*Sex)?\s*:?\s*([MF])\b`,
		`\b(MASCULINO|FEMENINO)\b`,
	)},
	{name: "birth_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+[Nn]acimiento[^:\n]*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`Nacimiento\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`Nacimiento\s*:?\s*(\d{1,2}\s+de\s+\p{L}+\s+de\s+\d{4})`,
	)},
	{name: "birth_place", class: classText, patterns: compileAll(
		`Lugar\s+de\s+[Nn]acimiento\s*:?\s*([A-ZÁÉÍÓÚÑ,\. ]{2,60})`,
		`Nacido\s+en\s*:?\s*([A-ZÁÉÍÓÚÑ,\. ]{2,60})`,
	)},
	{name: "nationality", class: classNationality, patterns: compileAll(
		`Nacionalidad\s*(?:/\s*Nationality)?\s*:?\s*([A-ZÁÉÍÓÚÑ ]{2,30})`,
		`\b(ARGENTINA|ARGENTINO)\b`,
	)},
	{name: "issue_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+[Ee]misi[óo]n[^:\n]*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`Emisi[óo]n\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
	)},
	{name: "expiry_date", class: classDate, patterns: compileAll(
		`Fecha\s+de\s+[Vv]encimiento[^:\n]*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`V[áa]lido\s+hasta\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
	)},
	{name: "issue_place", class: classText, patterns: compileAll(
		`Lugar\s+de\s+[Ee]misi[óo]n\s*:?\s*([A-ZÁÉÍÓÚÑ,\. ]{2,60})`,
		`Emitido\s+en\s*:?\s*([A-ZÁÉÍÓÚÑ,\. ]{2,60})`,
	)},
	{name: "procedure_number", class: classDigits, patterns: compileAll(
		`N[º°]?\s+de\s+Tr[áa]mite\s*:?\s*(\d{8,11})`,
		`Tr[áa]mite\s*N?[º°]?\s*:?\s*(\d{8,11})`,
	)},
	{name: "verification_code", class: classText, patterns: compileAll(
		`C[óo]digo\s+de\s+Verificaci[óo]n\s*:?\s*([A-Z0-9]{4,20})`,
	)},
	{name: "domicile", class: classText, patterns: compileAll(
		`(?m)Domicilio\s*:?\s*([A-ZÁÉÍÓÚÑ0-9,\.\- ]{5,80})\s*$`,
	)},
	{name: "marital_status", class: classText, patterns: compileAll(
		`Estado\s+Civil\s*:?\s*([A-ZÁÉÍÓÚÑ ]{4,20})`,
		`\b(SOLTER[OA]|CASAD[OA]|DIVORCIAD[OA]|VIUD[OA])\b`,
	)},
	{name: "occupation", class: classText, patterns: compileAll(
		`Profesi[óo]n\s*:?\s*([A-ZÁÉÍÓÚÑ,\. ]{3,40})`,
	)},
}

// academicFields covers degrees, diplomas, and course certificates. These
// documents are prose rather than forms, so the anchors are the granting
// verbs and institutional keywords.
var academicFields = []fieldSpec{
	{name: "institution", class: classText, patterns: compileAll(
		`(?m)(Universidad\s+[\p{L}\. ]{4,60})`,
		`(?m)(Instituto\s+[\p{L}\. ]{4,60})`,
		`(?m)(Escuela\s+[\p{L}\. ]{4,60})`,
	)},
	{name: "degree_title", class: classText, patterns: compileAll(
		`T[íi]tulo\s+de\s+([\p{L}\. ]{2,50})`,
		`((?:Licenciad[oa]|Ingenier[oa]|Doctora?|Magister|Especialista|Bachiller)\s+en\s+[\p{L}\. ]{2,50})`,
	)},
	{name: "student_name", class: classText, patterns: compileAll(
		`(?:se\s+otorga|se\s+certifica|se\s+confiere)\s+(?:a\s+la|al|a)\s+([A-ZÁÉÍÓÚÑ\. ]{3,50})`,
		`(?m)(?:Estudiante|Alumn[oa]|Egresad[oa])\s*:?\s*([A-ZÁÉÍÓÚÑ\. ]{3,50})\s*$`,
	)},
	{name: "issue_date", class: classDate, patterns: compileAll(
		`(?:otorgado|emitido|expedido)\s+el\s+(\d{1,2}\s+de\s+\p{L}+\s+de\s+\d{4})`,
		`Fecha\s+de\s+Emisi[óo]n\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`\bel\s+(\d{1,2}\s+de\s+\p{L}+\s+de\s+\d{4})`,
	)},
	{name: "registry_number", class: classText, patterns: compileAll(
		`(?:Registro|Matr[íi]cula|Expediente)\s*N?[º°]?\s*:?\s*([A-Z0-9\-\.\/]{3,20})`,
	)},
	{name: "grade", class: classText, patterns: compileAll(
		`(?:Calificaci[óo]n|Nota)\s*:?\s*([\d\.,]{1,5})`,
		`\b(APROBADO|SOBRESALIENTE|DISTINGUIDO)\b`,
	)},
	{name: "average", class: classAmount, patterns: compileAll(
		`Promedio\s*:?\s*([\d\.,]{1,5})`,
		`con\s+un\s+promedio\s+de\s+([\d\.,]{1,5})`,
	)},
	{name: "duration", class: classText, patterns: compileAll(
		`Duraci[óo]n\s*:?\s*([\p{L}0-9 ]{1,30})`,
		`(\d{1,2}\s+(?:años|semestres|meses))`,
	)},
	{name: "course_hours", class: classDigits, patterns: compileAll(
		`Carga\s+[Hh]oraria\s*:?\s*(\d{1,4})`,
		`(\d{1,4})\s*(?:horas|hs\.?)\b`,
	)},
	{name: "modality", class: classText, patterns: compileAll(
		`Modalidad\s*:?\s*([\p{L} ]{4,25})`,
		`\b(PRESENCIAL|VIRTUAL|A\s+DISTANCIA)\b`,
	)},
	{name: "faculty", class: classText, patterns: compileAll(
		`(?m)(Facultad\s+de\s+[\p{L}\. ]{3,60})`,
	)},
	{name: "program", class: classText, patterns: compileAll(
		`Carrera\s*:?\s*([\p{L}\. ]{3,60})`,
	)},
	{name: "resolution_id", class: classText, patterns: compileAll(
		`Resoluci[óo]n\s*N?[º°]?\s*:?\s*([A-Z0-9\-\/\.]{3,20})`,
	)},
}

// genericFields covers non-AFIP invoices and receipts, where only the
// universal commercial fields are worth chasing.
var genericFields = []fieldSpec{
	{name: "issue_date", class: classDate, patterns: compileAll(
		`Fecha:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`Date:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		`(\d{1,2}/\d{1,2}/\d{4})`,
	)},
	{name: "total_amount", class: classAmount, patterns: compileAll(
		`Importe\s+Total:?\s*\$?\s*([\d,.]+)`,
		`TOTAL:?\s*\$?\s*([\d,.]+)`,
		`Total:?\s*\$?\s*([\d,.]+)`,
	)},
	{name: "issuer_name", class: classText, patterns: compileAll(
		`(?m)Raz[óo]n\s+Social:?\s*([^\n\r]+)`,
	)},
}

// patternRegistry maps each document type to its field battery. Populated
// once at package load; never mutated afterwards.
var patternRegistry = map[models.DocumentType][]fieldSpec{
	models.DocTypeAFIPInvoice: afipFields,
	models.DocTypeInvoice:     genericFields,
	models.DocTypeReceipt:     genericFields,
	models.DocTypeForm:        genericFields,
	models.DocTypeDNI:         dniFields,
	models.DocTypeAcademic:    academicFields,
	models.DocTypeUnknown:     genericFields,
}

// afipMarkers are text cues that promote an untyped document to the AFIP
// battery.
var afipMarkers = compileAll(
	`\bCAE\b`,
	`C\.A\.E\.`,
	`\bAFIP\b`,
	`\bARCA\b`,
	`Comprobante\s+Autorizado`,
)

// dniMarkers promote an untyped document to the identity battery.
var dniMarkers = compileAll(
	`DOCUMENTO\s+NACIONAL\s+DE\s+IDENTIDAD`,
	`LIBRETA\s+C[ÍI]VICA`,
	`\bPASAPORTE\b`,
	`\bDNI\s*N?[º°]?\s*:?\s*\d{7,8}\b`,
)

// academicMarkers promote an untyped document to the academic battery.
var academicMarkers = compileAll(
	`T[íi]tulo\s+de`,
	`\bDiploma\b`,
	`\bCertificado\b`,
	`se\s+otorga|se\s+certifica|se\s+confiere`,
)

// resolveType upgrades DocTypeUnknown when the text carries markers of a
// known battery, so callers without a hint still get the right one. AFIP
// markers win over identity ones: an invoice quotes the buyer's DNI, but no
// identity document carries a CAE.
func resolveType(docType models.DocumentType, text string) models.DocumentType {
	if docType != models.DocTypeUnknown {
		return docType
	}
	for _, re := range afipMarkers {
		if re.MatchString(text) {
			return models.DocTypeAFIPInvoice
		}
	}
	for _, re := range dniMarkers {
		if re.MatchString(text) {
			return models.DocTypeDNI
		}
	}
	for _, re := range academicMarkers {
		if re.MatchString(text) {
			return models.DocTypeAcademic
		}
	}
	return models.DocTypeUnknown
}
