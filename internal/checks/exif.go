package checks

import (
	"context"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// ImageMetadataCheck extracts EXIF metadata from fetched images. GPS
// coordinates are reported separately from other identifying tags because
// they disclose physical location.
type ImageMetadataCheck struct{}

// NewImageMetadataCheck creates the image_metadata check.
func NewImageMetadataCheck() *ImageMetadataCheck {
	return &ImageMetadataCheck{}
}

// Name returns the check identifier.
func (c *ImageMetadataCheck) Name() string { return "image_metadata" }

// Passive reports that this check never sends requests.
func (c *ImageMetadataCheck) Passive() bool { return true }

// gpsTags disclose location.
var gpsTags = map[string]bool{
	"GPSLatitude":     true,
	"GPSLongitude":    true,
	"GPSLatitudeRef":  true,
	"GPSLongitudeRef": true,
	"GPSAltitude":     true,
	"GPSTimeStamp":    true,
}

// identifyingTags disclose device, operator, or workflow information.
var identifyingTags = map[string]bool{
	"Make":               true,
	"Model":              true,
	"Software":           true,
	"ProcessingSoftware": true,
	"Artist":             true,
	"Copyright":          true,
	"SerialNumber":       true,
	"BodySerialNumber":   true,
	"LensSerialNumber":   true,
	"HostComputer":       true,
	"DateTimeOriginal":   true,
}

// Run extracts EXIF tags from image responses. Pages without EXIF data
// (including non-image pages) yield no findings and no error.
func (c *ImageMetadataCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	if !page.IsImage() || len(page.Body) == 0 {
		return nil, nil
	}

	rawExif, err := exif.SearchAndExtractExif(page.Body)
	if err != nil || rawExif == nil {
		// Most web images are stripped; absence of EXIF is the normal case.
		return nil, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, nil
	}

	findings := make([]model.Finding, 0)
	for _, entry := range entries {
		switch {
		case gpsTags[entry.TagName]:
			findings = append(findings, model.NewFinding(
				"exif_gps",
				page.URL,
				"GPS coordinates in image metadata",
				"The image carries GPS EXIF tags revealing where it was taken.",
				entry.TagName+": "+entry.Formatted,
			))
		case identifyingTags[entry.TagName]:
			findings = append(findings, model.NewFinding(
				"exif_metadata",
				page.URL,
				"Identifying EXIF tag: "+entry.TagName,
				"The image carries EXIF metadata identifying the device, software, or author.",
				entry.TagName+": "+entry.Formatted,
			))
		}
	}

	return findings, nil
}
