package oracle

const instructions = `You review the full text extracted from one PDF document.

Decide whether the document contains BOTH:
  (a) a hospitality request form that has been signed by a person, and
  (b) a Banquet Event Order (BEO) attached to or included in the document.

Only when both are present, set valid to true and extract:
  - record_id: the BEO number exactly as printed, including any letter prefix.
  - record_date: the event date of the BEO as printed (for example 03/05/2024 or 2024-03-05).
  - org_name: the organization from the Client/Organization field. Never a person's name.
  - contact_name: the contact or client person named on the form, if any.

Use null for any field you cannot find. When either (a) or (b) is missing, set valid to false
and every other field to null. Respond with the JSON object only.`
