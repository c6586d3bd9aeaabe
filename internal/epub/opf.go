package epub

import "encoding/xml"

// containerXML models META-INF/container.xml, which locates the OPF.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// opfPackage is the root <package> element of the OPF document.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata holds the Dublin Core elements ingestion cares about.
type opfMetadata struct {
	Titles   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
}

type opfDCElement struct {
	Value string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpine struct {
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

type opfSpineItemRef struct {
	IDRef string `xml:"idref,attr"`
}
