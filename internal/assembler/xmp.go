package assembler

import (
	"bytes"
	"encoding/xml"
	"strings"
	"text/template"
	"time"
)

// xmpFields mirrors the document info dictionary so both stay equivalent
type xmpFields struct {
	Title       string
	Author      string
	Subject     string
	Keywords    string
	Creator     string
	Producer    string
	CreateDate  string
	ModifyDate  string
	FileName    string
	Conformance string
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

var xmpTemplate = template.Must(template.New("xmp").Funcs(template.FuncMap{"x": xmlEscape}).Parse(
	`<?xpacket begin="` + "\ufeff" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
<rdf:Description rdf:about="" xmlns:pdfaid="http://www.aiim.org/pdfa/ns/id/">
<pdfaid:part>3</pdfaid:part>
<pdfaid:conformance>B</pdfaid:conformance>
</rdf:Description>
<rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:format>application/pdf</dc:format>
{{- if .Title}}
<dc:title><rdf:Alt><rdf:li xml:lang="x-default">{{x .Title}}</rdf:li></rdf:Alt></dc:title>
{{- end}}
{{- if .Author}}
<dc:creator><rdf:Seq><rdf:li>{{x .Author}}</rdf:li></rdf:Seq></dc:creator>
{{- end}}
{{- if .Subject}}
<dc:description><rdf:Alt><rdf:li xml:lang="x-default">{{x .Subject}}</rdf:li></rdf:Alt></dc:description>
{{- end}}
</rdf:Description>
<rdf:Description rdf:about="" xmlns:pdf="http://ns.adobe.com/pdf/1.3/">
{{- if .Producer}}
<pdf:Producer>{{x .Producer}}</pdf:Producer>
{{- end}}
{{- if .Keywords}}
<pdf:Keywords>{{x .Keywords}}</pdf:Keywords>
{{- end}}
</rdf:Description>
<rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/">
{{- if .Creator}}
<xmp:CreatorTool>{{x .Creator}}</xmp:CreatorTool>
{{- end}}
{{- if .CreateDate}}
<xmp:CreateDate>{{.CreateDate}}</xmp:CreateDate>
{{- end}}
{{- if .ModifyDate}}
<xmp:ModifyDate>{{.ModifyDate}}</xmp:ModifyDate>
{{- end}}
</rdf:Description>
<rdf:Description rdf:about="" xmlns:fx="urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#">
<fx:DocumentType>INVOICE</fx:DocumentType>
<fx:DocumentFileName>{{x .FileName}}</fx:DocumentFileName>
<fx:Version>1.0</fx:Version>
<fx:ConformanceLevel>{{x .Conformance}}</fx:ConformanceLevel>
</rdf:Description>
<rdf:Description rdf:about="" xmlns:pdfaExtension="http://www.aiim.org/pdfa/ns/extension/" xmlns:pdfaSchema="http://www.aiim.org/pdfa/ns/schema#" xmlns:pdfaProperty="http://www.aiim.org/pdfa/ns/property#">
<pdfaExtension:schemas>
<rdf:Bag>
<rdf:li rdf:parseType="Resource">
<pdfaSchema:schema>Factur-X PDFA Extension Schema</pdfaSchema:schema>
<pdfaSchema:namespaceURI>urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#</pdfaSchema:namespaceURI>
<pdfaSchema:prefix>fx</pdfaSchema:prefix>
<pdfaSchema:property>
<rdf:Seq>
<rdf:li rdf:parseType="Resource">
<pdfaProperty:name>DocumentFileName</pdfaProperty:name>
<pdfaProperty:valueType>Text</pdfaProperty:valueType>
<pdfaProperty:category>external</pdfaProperty:category>
<pdfaProperty:description>name of the embedded XML invoice file</pdfaProperty:description>
</rdf:li>
<rdf:li rdf:parseType="Resource">
<pdfaProperty:name>DocumentType</pdfaProperty:name>
<pdfaProperty:valueType>Text</pdfaProperty:valueType>
<pdfaProperty:category>external</pdfaProperty:category>
<pdfaProperty:description>INVOICE</pdfaProperty:description>
</rdf:li>
<rdf:li rdf:parseType="Resource">
<pdfaProperty:name>Version</pdfaProperty:name>
<pdfaProperty:valueType>Text</pdfaProperty:valueType>
<pdfaProperty:category>external</pdfaProperty:category>
<pdfaProperty:description>The actual version of the Factur-X XML schema</pdfaProperty:description>
</rdf:li>
<rdf:li rdf:parseType="Resource">
<pdfaProperty:name>ConformanceLevel</pdfaProperty:name>
<pdfaProperty:valueType>Text</pdfaProperty:valueType>
<pdfaProperty:category>external</pdfaProperty:category>
<pdfaProperty:description>The conformance level of the embedded Factur-X data</pdfaProperty:description>
</rdf:li>
</rdf:Seq>
</pdfaSchema:property>
</rdf:li>
</rdf:Bag>
</pdfaExtension:schemas>
</rdf:Description>
</rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`))

func renderXMP(f xmpFields) ([]byte, error) {
	var buf bytes.Buffer
	if err := xmpTemplate.Execute(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xmpDate converts a zoned PDF date to the XMP form
func xmpDate(d string) string {
	s := strings.TrimPrefix(strings.TrimSpace(d), "D:")
	if len(s) < 14 {
		return ""
	}
	t, err := time.Parse("20060102150405", s[:14])
	if err != nil {
		return ""
	}
	out := t.Format("2006-01-02T15:04:05")

	zone := strings.ReplaceAll(s[14:], "'", "")
	switch {
	case len(zone) == 5 && (zone[0] == '+' || zone[0] == '-'):
		return out + zone[:3] + ":" + zone[3:]
	default:
		return out + "Z"
	}
}

// pdfDate formats t as a PDF date in UTC
func pdfDate(t time.Time) string {
	return "D:" + t.UTC().Format("20060102150405") + "Z"
}

// zoned returns the PDF date s with an explicit zone. fpdf writes local
// dates without one; those are taken as UTC.
func zoned(s string) string {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(raw) != 14 {
		return s
	}
	t, err := time.Parse("20060102150405", raw)
	if err != nil {
		return s
	}
	return pdfDate(t)
}
