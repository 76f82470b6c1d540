package swagger

import "strings"

// Settings is the string-keyed settings table applied to every
// assembled document. Recognized keys:
//
//	Host, BasePath, Schemes (comma separated)
//	InfoTitle, InfoDescription, InfoVersion, InfoTermsOfService
//	InfoContactName, InfoContactUrl, InfoContactEmail
//	InfoLicenseName, InfoLicenseUrl
//
// Unknown keys are ignored.
type Settings map[string]string

// Setting keys and group prefixes.
const (
	SettingHost     = "Host"
	SettingBasePath = "BasePath"
	SettingSchemes  = "Schemes"

	SettingInfoPrefix         = "Info"
	SettingInfoTitle          = "InfoTitle"
	SettingInfoDescription    = "InfoDescription"
	SettingInfoVersion        = "InfoVersion"
	SettingInfoTermsOfService = "InfoTermsOfService"
	SettingInfoContactPrefix  = "InfoContact"
	SettingInfoContactName    = "InfoContactName"
	SettingInfoContactURL     = "InfoContactUrl"
	SettingInfoContactEmail   = "InfoContactEmail"
	SettingInfoLicensePrefix  = "InfoLicense"
	SettingInfoLicenseName    = "InfoLicenseName"
	SettingInfoLicenseURL     = "InfoLicenseUrl"
)

// hasPrefix reports whether any key starts with prefix.
func (s Settings) hasPrefix(prefix string) bool {
	for key := range s {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// ApplySettings copies global settings onto doc. Paths and definitions
// are never touched. A group container (Info, Contact, License) is
// allocated as soon as any key with the group prefix is present, even
// if none of its own fields are set, so a partially configured group
// still serializes as an object.
func ApplySettings(doc *Document, s Settings) {
	if v, ok := s[SettingBasePath]; ok {
		doc.BasePath = v
	}
	if v, ok := s[SettingHost]; ok {
		doc.Host = v
	}
	if v, ok := s[SettingSchemes]; ok {
		doc.Schemes = splitList(v)
	}

	if !s.hasPrefix(SettingInfoPrefix) {
		return
	}
	if doc.Info == nil {
		doc.Info = &Info{}
	}
	info := doc.Info

	if v, ok := s[SettingInfoDescription]; ok {
		info.Description = v
	}
	if v, ok := s[SettingInfoVersion]; ok {
		info.Version = v
	}
	if v, ok := s[SettingInfoTermsOfService]; ok {
		info.TermsOfService = v
	}
	if v, ok := s[SettingInfoTitle]; ok {
		info.Title = v
	}

	if s.hasPrefix(SettingInfoContactPrefix) {
		if info.Contact == nil {
			info.Contact = &Contact{}
		}
		if v, ok := s[SettingInfoContactName]; ok {
			info.Contact.Name = v
		}
		if v, ok := s[SettingInfoContactURL]; ok {
			info.Contact.URL = v
		}
		if v, ok := s[SettingInfoContactEmail]; ok {
			info.Contact.Email = v
		}
	}

	if s.hasPrefix(SettingInfoLicensePrefix) {
		if info.License == nil {
			info.License = &License{}
		}
		if v, ok := s[SettingInfoLicenseURL]; ok {
			info.License.URL = v
		}
		if v, ok := s[SettingInfoLicenseName]; ok {
			info.License.Name = v
		}
	}
}

// splitList splits a comma separated list, dropping blanks and keeping
// order.
func splitList(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
